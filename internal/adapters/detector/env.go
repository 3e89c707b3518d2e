// Package detector provides terminal and CI detection.
package detector

import (
	"os"

	"golang.org/x/term"
)

// IsCI reports whether a CI environment variable is set.
func IsCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// Interactive reports whether an operator can answer prompts: stdin and stdout are
// terminals and the process is not running under CI.
func Interactive() bool {
	return !IsCI() && IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}
