// Package installer makes sure the project's dependency cache is populated.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/launchpad/internal/engine/retry"
	"go.trai.ch/zerr"
)

// Outcome describes what EnsureInstalled did.
type Outcome int

const (
	// OutcomeNotConfigured means the project declares no dependency cache.
	OutcomeNotConfigured Outcome = iota
	// OutcomeAlreadyInstalled means the cache directory existed and nothing ran.
	OutcomeAlreadyInstalled
	// OutcomeInstalled means the install command ran and succeeded.
	OutcomeInstalled
	// OutcomeFailed means every attempt failed or the run was cancelled.
	OutcomeFailed
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyInstalled:
		return "already installed"
	case OutcomeInstalled:
		return "installed"
	case OutcomeFailed:
		return "failed"
	default:
		return "not configured"
	}
}

// Installer runs the package manager's install command when the cache is absent.
type Installer struct {
	runner ports.CommandRunner
	tracer ports.Tracer
	logger ports.Logger
	deps   domain.Dependencies
	opts   []retry.Option
}

// New creates an Installer for deps.
func New(runner ports.CommandRunner, tracer ports.Tracer, logger ports.Logger, deps domain.Dependencies) *Installer {
	return &Installer{
		runner: runner,
		tracer: tracer,
		logger: logger,
		deps:   deps,
	}
}

// WithRetryOptions passes opts to every retried install.
func (i *Installer) WithRetryOptions(opts ...retry.Option) *Installer {
	i.opts = append(i.opts, opts...)
	return i
}

// EnsureInstalled runs the install command unless the cache directory already exists.
// The directory's presence is the only signal of a completed install; a cache
// left behind by a failed attempt is removed so it cannot pass for one.
func (i *Installer) EnsureInstalled(ctx context.Context) (Outcome, error) {
	if i.deps.CacheDir == "" || i.deps.Install.IsEmpty() {
		return OutcomeNotConfigured, nil
	}

	if isDir(i.deps.CacheDir) {
		i.logger.Info(fmt.Sprintf("dependencies already installed (%s exists)", filepath.Base(i.deps.CacheDir)))
		return OutcomeAlreadyInstalled, nil
	}

	ctx, span := i.tracer.Start(ctx, "install")
	defer span.End()
	span.SetAttribute("command", i.deps.Install.String())

	opts := append([]retry.Option{retry.WithNotify(i.notify)}, i.opts...)
	err := retry.Do(ctx, i.deps.Retry, i.attempt(span), opts...)
	if err == nil {
		return OutcomeInstalled, nil
	}

	span.RecordError(err)
	if ctx.Err() != nil {
		return OutcomeFailed, errors.Join(domain.ErrCancelled, err)
	}
	return OutcomeFailed, errors.Join(
		zerr.With(zerr.Wrap(domain.ErrInstallFailed, i.deps.Install.String()), "attempts", i.deps.Retry.Attempts()),
		err,
	)
}

func (i *Installer) attempt(span ports.Span) retry.Operation {
	return func(ctx context.Context, attempt int) error {
		span.SetAttribute("attempt", attempt)
		existed := exists(i.deps.CacheDir)

		code, err := i.runner.Stream(ctx, i.deps.Install, span)
		if err == nil && code == 0 {
			return nil
		}

		if !existed {
			if rmErr := os.RemoveAll(i.deps.CacheDir); rmErr != nil {
				i.logger.Warn(fmt.Sprintf("could not remove partial %s: %v", i.deps.CacheDir, rmErr))
			}
		}

		if err != nil {
			if errors.Is(err, domain.ErrSpawnFailed) {
				return retry.Permanent(err)
			}
			return err
		}
		return zerr.With(zerr.New("install command exited non-zero"), "exit_code", code)
	}
}

func (i *Installer) notify(attempt int, err error, wait time.Duration) {
	i.logger.Warn(fmt.Sprintf("install attempt %d/%d failed (%v), retrying in %s",
		attempt, i.deps.Retry.Attempts(), err, wait))
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
