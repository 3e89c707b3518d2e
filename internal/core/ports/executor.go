// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/launchpad/internal/core/domain"
)

// CommandRunner runs external tools on behalf of the engine.
//
// A non-zero exit status is not an error: it is reported through the exit code.
// Errors are reserved for commands that could not be spawned or were cancelled.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type CommandRunner interface {
	// Capture runs cmd to completion with stdout and stderr captured separately.
	Capture(ctx context.Context, cmd domain.Command) (domain.CaptureResult, error)

	// Stream runs cmd to completion, writing its combined output to w as it is produced.
	Stream(ctx context.Context, cmd domain.Command, w io.Writer) (int, error)

	// Start spawns cmd in its own process group and returns a handle to it.
	// The child is not tied to any context; it lives until it exits or is signalled.
	Start(cmd domain.Command) (Process, error)

	// LookPath resolves an executable name against the runner's effective PATH.
	LookPath(name string) (string, error)
}

// Process is a handle to a running child process.
type Process interface {
	// Pid returns the process id of the child.
	Pid() int
	// Output returns the combined stdout and stderr of the child.
	// Reads return io.EOF once the child and all its descendants closed their output.
	Output() io.Reader
	// Wait blocks until the child exits and returns its exit code.
	// A child killed by a signal reports -1.
	Wait() (int, error)
	// Interrupt asks the child's process group to shut down gracefully.
	Interrupt() error
	// Kill forcibly terminates the child's process group.
	Kill() error
}
