// Package supervisor starts the application as a child process and watches it until it exits.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	// drainTimeout bounds how long a ready check waits for buffered output after the child exited.
	drainTimeout = 500 * time.Millisecond
	// killTimeout bounds how long Terminate waits for the child after a forced kill.
	killTimeout = 5 * time.Second

	maxLineSize = 1024 * 1024
)

// Supervisor owns at most one live child process.
type Supervisor struct {
	runner     ports.CommandRunner
	logger     ports.Logger
	classifier *Classifier
	out        io.Writer
	name       string

	mu      sync.Mutex
	state   domain.SupervisionState
	proc    ports.Process
	ready   chan struct{}
	exited  chan struct{}
	drained chan struct{}

	termMu   sync.Mutex
	termDone chan struct{}
	termErr  error
}

// New creates a Supervisor. Child output lines are copied to out, except lines
// classified as errors, which are reported through logger instead.
func New(runner ports.CommandRunner, logger ports.Logger, classifier *Classifier, out io.Writer) *Supervisor {
	if out == nil {
		out = io.Discard
	}
	return &Supervisor{
		runner:     runner,
		logger:     logger,
		classifier: classifier,
		out:        out,
		name:       "app",
		state:      domain.SupervisionState{Phase: domain.PhaseStarting},
	}
}

// WithName sets the name flagged output lines are attributed to.
func (s *Supervisor) WithName(name string) *Supervisor {
	if name != "" {
		s.name = name
	}
	return s
}

// State returns a snapshot of the supervision state.
func (s *Supervisor) State() domain.SupervisionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start spawns cmd. Only one child may be live at a time.
func (s *Supervisor) Start(cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		return zerr.With(zerr.Wrap(domain.ErrProcessAlreadyRunning, "cannot start a second child"), "pid", s.proc.Pid())
	}

	s.state = domain.SupervisionState{Phase: domain.PhaseStarting}
	proc, err := s.runner.Start(cmd)
	if err != nil {
		s.state = domain.SupervisionState{Phase: domain.PhaseFailed, ExitCode: -1, Reason: err.Error()}
		if errors.Is(err, domain.ErrSpawnFailed) {
			return err
		}
		return errors.Join(domain.ErrSpawnFailed, err)
	}

	s.proc = proc
	s.state = domain.SupervisionState{Phase: domain.PhaseRunning}
	s.ready = make(chan struct{})
	s.exited = make(chan struct{})
	s.drained = make(chan struct{})
	s.termMu.Lock()
	s.termDone = nil
	s.termErr = nil
	s.termMu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		return s.pump(proc.Output())
	})
	g.Go(func() error {
		code, err := proc.Wait()
		s.markExited(code, err)
		return err
	})

	drained := s.drained
	go func() {
		if err := g.Wait(); err != nil {
			s.logger.Warn(fmt.Sprintf("supervised process: %v", err))
		}
		close(drained)
	}()

	return nil
}

// AwaitReady blocks until the child reports readiness, exits, or timeout elapses.
//
// A timeout leaves the child running in the TimedOut phase and returns
// ErrSupervisionTimedOut; the caller decides whether to terminate it. A child that
// exits with code 0 before becoming ready is not an error.
func (s *Supervisor) AwaitReady(ctx context.Context, timeout time.Duration) (domain.SupervisionState, error) {
	s.mu.Lock()
	if s.ready == nil {
		st := s.state
		s.mu.Unlock()
		return st, domain.ErrNoProcess
	}
	ready, exited, drained := s.ready, s.exited, s.drained
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return s.State(), nil
	case <-exited:
		// Lines printed just before exit may still be buffered.
		waitDrained(drained)
		return s.exitResult()
	case <-timer.C:
		s.mu.Lock()
		if s.state.Phase == domain.PhaseRunning {
			s.state.Phase = domain.PhaseTimedOut
			s.state.Reason = fmt.Sprintf("no readiness signal within %s", timeout)
		}
		st := s.state
		s.mu.Unlock()
		if st.Phase == domain.PhaseTimedOut {
			return st, zerr.With(zerr.Wrap(domain.ErrSupervisionTimedOut, st.Reason), "timeout", timeout.String())
		}
		// Readiness or exit raced the timer.
		select {
		case <-ready:
			return st, nil
		default:
			return s.exitResult()
		}
	case <-ctx.Done():
		return s.State(), errors.Join(domain.ErrCancelled, ctx.Err())
	}
}

func (s *Supervisor) exitResult() (domain.SupervisionState, error) {
	st := s.State()
	if st.ExitCode != 0 {
		return st, zerr.With(zerr.Wrap(domain.ErrProcessCrashed, st.Reason), "exit_code", st.ExitCode)
	}
	return st, nil
}

// Wait blocks until the child exits and returns its exit code.
// Output the child wrote before exiting has been forwarded when Wait returns,
// unless a descendant keeps the output open.
func (s *Supervisor) Wait(ctx context.Context) (int, error) {
	s.mu.Lock()
	exited, drained := s.exited, s.drained
	s.mu.Unlock()
	if exited == nil {
		return -1, domain.ErrNoProcess
	}
	select {
	case <-exited:
		waitDrained(drained)
		return s.State().ExitCode, nil
	case <-ctx.Done():
		return -1, errors.Join(domain.ErrCancelled, ctx.Err())
	}
}

func waitDrained(drained <-chan struct{}) {
	timer := time.NewTimer(drainTimeout)
	defer timer.Stop()
	select {
	case <-drained:
	case <-timer.C:
	}
}

// Terminate asks the child's process group to stop, waits up to grace, and then
// kills it. It returns once the child has exited. Calling it again, concurrently
// or after the child is gone, is safe.
func (s *Supervisor) Terminate(grace time.Duration) error {
	s.mu.Lock()
	proc, exited := s.proc, s.exited
	s.mu.Unlock()
	if proc == nil {
		return nil
	}

	s.termMu.Lock()
	if s.termDone != nil {
		done := s.termDone
		s.termMu.Unlock()
		<-done
		return s.termErr
	}
	done := make(chan struct{})
	s.termDone = done
	s.termMu.Unlock()

	s.termErr = s.terminate(proc, exited, grace)
	close(done)
	return s.termErr
}

func (s *Supervisor) terminate(proc ports.Process, exited <-chan struct{}, grace time.Duration) error {
	select {
	case <-exited:
		return nil
	default:
	}

	if err := proc.Interrupt(); err != nil {
		s.logger.Warn(fmt.Sprintf("could not interrupt process %d: %v", proc.Pid(), err))
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-exited:
		return nil
	case <-timer.C:
	}

	s.logger.Warn(fmt.Sprintf("process %d did not exit within %s, killing it", proc.Pid(), grace))
	if err := proc.Kill(); err != nil {
		s.logger.Warn(fmt.Sprintf("could not kill process %d: %v", proc.Pid(), err))
	}

	kill := time.NewTimer(killTimeout)
	defer kill.Stop()
	select {
	case <-exited:
		return nil
	case <-kill.C:
		return zerr.With(zerr.New("process did not exit after kill"), "pid", proc.Pid())
	}
}

func (s *Supervisor) pump(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		s.handleLine(line)
	}
	if err := scanner.Err(); err != nil {
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(s.out, r)
		return zerr.Wrap(err, "failed to read process output")
	}
	return nil
}

func (s *Supervisor) handleLine(line string) {
	switch s.classifier.Classify(line) {
	case domain.LineError:
		s.logger.AppWarn(s.name, line)
		return
	case domain.LineReady:
		s.markReady()
	case domain.LineSuppressed, domain.LineNoise:
	}
	_, _ = fmt.Fprintln(s.out, line)
}

func (s *Supervisor) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != domain.PhaseRunning {
		return
	}
	s.state.Phase = domain.PhaseReadyDetected
	close(s.ready)
}

func (s *Supervisor) markExited(code int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Phase = domain.PhaseExited
	s.state.ExitCode = code
	if err != nil {
		s.state.Reason = err.Error()
	} else {
		s.state.Reason = fmt.Sprintf("exited with code %d", code)
	}
	s.proc = nil
	close(s.exited)
}
