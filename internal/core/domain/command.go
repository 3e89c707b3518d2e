package domain

import "strings"

// Command describes a single external invocation.
type Command struct {
	// Argv holds the program followed by its arguments.
	Argv []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is overlaid on top of the inherited process environment.
	Env map[string]string
}

// String renders the command the way an operator would type it.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// IsEmpty reports whether the command has no program.
func (c Command) IsEmpty() bool {
	return len(c.Argv) == 0 || c.Argv[0] == ""
}

// WithEnv returns a copy of c with env overlaid on its own environment.
// Keys in env win over keys already present in c.
func (c Command) WithEnv(env map[string]string) Command {
	if len(env) == 0 {
		return c
	}
	merged := make(map[string]string, len(c.Env)+len(env))
	for k, v := range c.Env {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	c.Env = merged
	return c
}

// CaptureResult is the outcome of a command run with separately captured streams.
type CaptureResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}
