// Package prompt asks the operator yes/no questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.trai.ch/launchpad/internal/adapters/detector"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Prompter = (*Prompter)(nil)

// affirmative lists the accepted answers, compared case-insensitively.
var affirmative = []string{"y", "yes", "是"}

// Prompter implements ports.Prompter on a reader and writer pair.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive func() bool
}

// New creates a Prompter bound to the process's stdin and stderr.
func New() *Prompter {
	return NewWithIO(os.Stdin, os.Stderr, detector.Interactive)
}

// NewWithIO creates a Prompter reading answers from in and writing questions to out.
func NewWithIO(in io.Reader, out io.Writer, interactive func() bool) *Prompter {
	return &Prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

// Interactive reports whether a human can answer prompts.
func (p *Prompter) Interactive() bool {
	return p.interactive != nil && p.interactive()
}

// Confirm writes question and reads a single answer line. End of input counts as no.
func (p *Prompter) Confirm(question string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s (y/N) ", question); err != nil {
		return false, zerr.Wrap(err, "failed to write prompt")
	}

	answer, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, zerr.Wrap(err, "failed to read answer")
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	for _, yes := range affirmative {
		if answer == yes {
			return true, nil
		}
	}
	return false, nil
}
