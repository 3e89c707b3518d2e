package ports

// Prompter asks the operator yes/no questions.
//
//go:generate mockgen -source=prompter.go -destination=mocks/mock_prompter.go -package=mocks
type Prompter interface {
	// Interactive reports whether a human can answer prompts.
	Interactive() bool
	// Confirm asks question and reports whether the operator agreed.
	Confirm(question string) (bool, error)
}
