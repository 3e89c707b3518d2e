// Package shell runs external tools as child processes.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CommandRunner = (*Executor)(nil)

// WaitDelay bounds how long a cancelled command may take to exit after the
// graceful signal before it is killed.
const WaitDelay = 5 * time.Second

// Executor implements ports.CommandRunner using os/exec and pty.
type Executor struct {
	waitDelay time.Duration
}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{waitDelay: WaitDelay}
}

// WithWaitDelay overrides the delay between the graceful signal and the kill on cancellation.
func (e *Executor) WithWaitDelay(d time.Duration) *Executor {
	e.waitDelay = d
	return e
}

// Capture runs the command with stdout and stderr captured separately.
func (e *Executor) Capture(ctx context.Context, c domain.Command) (domain.CaptureResult, error) {
	cmd, err := e.command(ctx, c)
	if err != nil {
		return domain.CaptureResult{ExitCode: -1}, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return domain.CaptureResult{ExitCode: -1}, spawnError(c, err)
	}

	code, err := e.wait(ctx, c, cmd)
	return domain.CaptureResult{
		ExitCode: code,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, err
}

// Stream runs the command and copies its combined output to w line by line.
// A PTY is used where available so that the child line-buffers its output.
func (e *Executor) Stream(ctx context.Context, c domain.Command, w io.Writer) (int, error) {
	cmd, err := e.command(ctx, c)
	if err != nil {
		return -1, err
	}

	lines := &lineWriter{out: w}
	defer func() { _ = lines.Close() }()

	ptmx, err := pty.Start(cmd)
	if err != nil {
		// No PTY on this platform or in this sandbox; plain pipes still work.
		return e.streamPipes(ctx, c, w)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(lines, ptmx)
	}()

	code, err := e.wait(ctx, c, cmd)
	<-ioDone
	_ = ptmx.Close()

	return code, err
}

func (e *Executor) streamPipes(ctx context.Context, c domain.Command, w io.Writer) (int, error) {
	cmd, err := e.command(ctx, c)
	if err != nil {
		return -1, err
	}

	lines := &lineWriter{out: w}
	defer func() { _ = lines.Close() }()

	cmd.Stdout = lines
	cmd.Stderr = lines
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return -1, spawnError(c, err)
	}

	return e.wait(ctx, c, cmd)
}

// Start spawns the command detached from any context, in its own process group,
// with its combined output readable from the returned handle.
func (e *Executor) Start(c domain.Command) (ports.Process, error) {
	cmd, err := e.command(context.Background(), c)
	if err != nil {
		return nil, err
	}

	if ptmx, err := pty.Start(cmd); err == nil {
		return newProcess(cmd, ptmx), nil
	}

	cmd, _ = e.command(context.Background(), c)
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, spawnError(c, err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	setProcessGroup(cmd)

	err = cmd.Start()
	_ = pw.Close()
	if err != nil {
		_ = pr.Close()
		return nil, spawnError(c, err)
	}

	return newProcess(cmd, pr), nil
}

// LookPath resolves name against the PATH of the inherited environment.
func (e *Executor) LookPath(name string) (string, error) {
	if path, err := lookPath(name, os.Environ()); err == nil {
		return path, nil
	}
	return exec.LookPath(name)
}

// command builds an exec.Cmd whose cancellation interrupts the whole process group.
func (e *Executor) command(ctx context.Context, c domain.Command) (*exec.Cmd, error) {
	if c.IsEmpty() {
		return nil, domain.ErrEmptyCommand
	}

	name := c.Argv[0]
	args := c.Argv[1:]
	env := resolveEnvironment(os.Environ(), c.Env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // configured command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = c.Dir
	cmd.Env = env
	cmd.Cancel = func() error { return interruptGroup(cmd) }
	cmd.WaitDelay = e.waitDelay

	return cmd, nil
}

// wait waits for cmd and converts its outcome into an exit code.
func (e *Executor) wait(ctx context.Context, c domain.Command, cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	code := exitCode(cmd, err)

	if ctx.Err() != nil {
		return code, zerr.With(zerr.Wrap(domain.ErrCancelled, c.String()), "exit_code", code)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		return code, zerr.With(zerr.Wrap(err, "command failed"), "exit_code", code)
	}

	return code, nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}

func spawnError(c domain.Command, err error) error {
	return zerr.With(zerr.Wrap(domain.ErrSpawnFailed, err.Error()), "command", c.String())
}

// lineWriter forwards complete lines, dropping the carriage returns a PTY adds.
type lineWriter struct {
	out io.Writer
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.writeLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Close flushes a trailing partial line.
func (w *lineWriter) Close() error {
	if len(w.buf) > 0 {
		w.writeLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *lineWriter) writeLine(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	out := make([]byte, 0, len(line)+1)
	out = append(out, line...)
	out = append(out, '\n')
	_, _ = w.out.Write(out)
}

// resolveEnvironment overlays the command's environment on the inherited one.
func resolveEnvironment(sysEnv []string, overlay map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overlay))
	order := make([]string, 0, len(sysEnv)+len(overlay))

	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	for k, v := range overlay {
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	if strings.ContainsRune(file, filepath.Separator) {
		if err := findExecutable(file); err != nil {
			return "", err
		}
		return file, nil
	}

	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
