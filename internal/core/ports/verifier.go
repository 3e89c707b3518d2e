package ports

// ArtifactVerifier defines the interface for verifying build outputs.
//
//go:generate mockgen -destination=mocks/verifier_mock.go -package=mocks -source=verifier.go
type ArtifactVerifier interface {
	// MissingArtifacts returns the artifacts under root that are absent, empty or not regular files.
	MissingArtifacts(root string, artifacts []string) []string
}
