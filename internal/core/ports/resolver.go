package ports

// InputResolver defines the interface for resolving input files.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type InputResolver interface {
	// ResolveInputs expands the given paths and glob patterns to existing files.
	// Patterns without matches are dropped.
	ResolveInputs(inputs []string, root string) ([]string, error)
}
