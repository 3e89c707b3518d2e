package shell

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"go.trai.ch/launchpad/internal/core/ports"
)

var _ ports.Process = (*process)(nil)

// process is a started child whose combined output is read from out.
type process struct {
	cmd *exec.Cmd
	out *outputReader

	once sync.Once
	code int
	err  error
}

func newProcess(cmd *exec.Cmd, out *os.File) *process {
	return &process{cmd: cmd, out: &outputReader{f: out}}
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Output() io.Reader {
	return p.out
}

// Wait is safe to call more than once; later calls return the first result.
func (p *process) Wait() (int, error) {
	p.once.Do(func() {
		err := p.cmd.Wait()
		p.code = exitCode(p.cmd, err)

		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.err = err
		}
	})
	return p.code, p.err
}

func (p *process) Interrupt() error {
	return interruptGroup(p.cmd)
}

func (p *process) Kill() error {
	return killGroup(p.cmd)
}

// outputReader closes the underlying file once it is drained.
// A PTY master reports EIO after the last writer went away; that is end of output.
type outputReader struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

func (r *outputReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, io.EOF
	}

	n, err := r.f.Read(p)
	if err == nil {
		return n, nil
	}

	_ = r.f.Close()
	r.closed = true
	if errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
		err = io.EOF
	}
	return n, err
}
