// Package builder rebuilds stale targets in order and records the outcome.
package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/launchpad/internal/engine/retry"
	"go.trai.ch/zerr"
)

// Layout tells the Builder where the project lives and what it must produce.
type Layout struct {
	Root string
	// ErrorLog is the path of the log written when a build fails.
	ErrorLog string
	// Artifacts are verified after every target has been processed.
	Artifacts []string
}

// Builder is the build coordinator. Targets are processed strictly one after another.
type Builder struct {
	runner    ports.CommandRunner
	inspector ports.StalenessInspector
	verifier  ports.ArtifactVerifier
	hasher    ports.Hasher
	store     ports.BuildRecordStore
	tracer    ports.Tracer
	logger    ports.Logger
	layout    Layout

	now       func() time.Time
	retryOpts []retry.Option
}

// New creates a new Builder.
func New(
	runner ports.CommandRunner,
	inspector ports.StalenessInspector,
	verifier ports.ArtifactVerifier,
	hasher ports.Hasher,
	store ports.BuildRecordStore,
	tracer ports.Tracer,
	logger ports.Logger,
	layout Layout,
) *Builder {
	if layout.ErrorLog == "" {
		layout.ErrorLog = domain.DefaultBuildErrorLogPath(layout.Root)
	}
	return &Builder{
		runner:    runner,
		inspector: inspector,
		verifier:  verifier,
		hasher:    hasher,
		store:     store,
		tracer:    tracer,
		logger:    logger,
		layout:    layout,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for log headers and build records.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithRetryOptions passes opts to every retried build.
func (b *Builder) WithRetryOptions(opts ...retry.Option) *Builder {
	b.retryOpts = append(b.retryOpts, opts...)
	return b
}

// BuildIfStale rebuilds every stale target and skips fresh ones.
// The first failing target stops the run; later targets are left untouched.
func (b *Builder) BuildIfStale(ctx context.Context, targets []domain.BuildTarget) domain.BuildReport {
	var report domain.BuildReport

	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	b.tracer.EmitPlan(ctx, names)

	for _, target := range targets {
		if ctx.Err() != nil {
			report.Failure = &domain.BuildFailure{
				Target: target.Name,
				Err:    errors.Join(domain.ErrCancelled, ctx.Err()),
			}
			return report
		}

		report.Attempted = append(report.Attempted, target.Name)

		verdict := b.inspector.Inspect(target)
		if !verdict.Stale {
			b.logger.Info(fmt.Sprintf("%s is up to date, skipping build", target.Name))
			report.Skipped = append(report.Skipped, target.Name)
			continue
		}

		if failure := b.build(ctx, target, verdict); failure != nil {
			report.Failure = failure
			return report
		}
		report.Rebuilt = append(report.Rebuilt, target.Name)
	}

	if missing := b.verifier.MissingArtifacts(b.layout.Root, b.layout.Artifacts); len(missing) > 0 {
		report.Failure = &domain.BuildFailure{
			Err: zerr.With(
				zerr.Wrap(domain.ErrArtifactMissing, "required build outputs are missing"),
				"artifacts", strings.Join(missing, ", "),
			),
		}
	}

	return report
}

func (b *Builder) build(ctx context.Context, target domain.BuildTarget, verdict domain.StalenessVerdict) *domain.BuildFailure {
	fingerprint := b.fingerprint(target)
	b.logger.Info(fmt.Sprintf("%s needs a rebuild: %s%s", target.Name, verdict.Reason, b.unchangedNote(target, fingerprint)))

	ctx, span := b.tracer.Start(ctx, target.Name)
	defer span.End()
	span.SetAttribute("command", target.Command.String())
	span.SetAttribute("reason", verdict.Reason)

	start := b.now()
	var result domain.CaptureResult
	err := retry.Do(ctx, target.Retry, func(ctx context.Context, attempt int) error {
		span.SetAttribute("attempt", attempt)
		var err error
		result, err = b.runner.Capture(ctx, target.Command)
		if err != nil {
			if errors.Is(err, domain.ErrSpawnFailed) {
				return retry.Permanent(err)
			}
			return err
		}
		if result.ExitCode != 0 {
			return zerr.With(zerr.New("build command exited non-zero"), "exit_code", result.ExitCode)
		}
		return nil
	}, b.retryOpts...)

	if err != nil {
		_, _ = span.Write(result.Stderr)
		failure := b.fail(ctx, target, result, err)
		span.RecordError(failure.Err)
		return failure
	}

	if missing := b.verifier.MissingArtifacts(b.layout.Root, []string{target.Artifact}); len(missing) > 0 {
		failure := &domain.BuildFailure{
			Target: target.Name,
			Err: zerr.With(
				zerr.Wrap(domain.ErrArtifactMissing, fmt.Sprintf("%s did not produce its artifact", target.Name)),
				"artifact", target.Artifact,
			),
		}
		span.RecordError(failure.Err)
		return failure
	}

	b.record(target, fingerprint, b.now().Sub(start))
	return nil
}

func (b *Builder) fail(ctx context.Context, target domain.BuildTarget, result domain.CaptureResult, err error) *domain.BuildFailure {
	failure := &domain.BuildFailure{
		Target:   target.Name,
		ExitCode: result.ExitCode,
	}

	if ctx.Err() != nil {
		failure.Err = errors.Join(domain.ErrCancelled, err)
		return failure
	}

	entry := ErrorLogEntry{
		Target:   target.Name,
		Command:  target.Command.String(),
		Time:     b.now(),
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if errors.Is(err, domain.ErrSpawnFailed) {
		entry.ExitCode = -1
		entry.Stderr = []byte(err.Error())
		failure.ExitCode = -1
	}

	if errors.Is(err, domain.ErrSpawnFailed) {
		failure.Err = errors.Join(
			zerr.With(zerr.Wrap(domain.ErrBuildFailed, "could not start "+target.Command.String()), "target", target.Name),
			err,
		)
	} else {
		failure.Err = zerr.With(
			zerr.Wrap(domain.ErrBuildFailed, fmt.Sprintf("%s exited with code %d", target.Command, failure.ExitCode)),
			"target", target.Name,
		)
	}

	if logErr := writeErrorLog(b.layout.ErrorLog, entry); logErr != nil {
		b.logger.Warn(fmt.Sprintf("could not save the build error log: %v", logErr))
		return failure
	}
	failure.LogPath = b.layout.ErrorLog
	return failure
}

func (b *Builder) fingerprint(target domain.BuildTarget) string {
	fingerprint, err := b.hasher.Fingerprint(target)
	if err != nil {
		b.logger.Warn(fmt.Sprintf("could not fingerprint %s sources: %v", target.Name, err))
		return ""
	}
	return fingerprint
}

func (b *Builder) unchangedNote(target domain.BuildTarget, fingerprint string) string {
	if fingerprint == "" {
		return ""
	}
	prev, err := b.store.Get(b.layout.Root, target.Name)
	if err != nil || prev == nil || prev.Fingerprint != fingerprint {
		return ""
	}
	return " (contents unchanged since the last build)"
}

func (b *Builder) record(target domain.BuildTarget, fingerprint string, took time.Duration) {
	if fingerprint == "" {
		return
	}
	rec := domain.BuildRecord{
		Target:      target.Name,
		Fingerprint: fingerprint,
		Command:     target.Command.String(),
		BuiltAt:     b.now(),
		Duration:    took,
	}
	if err := b.store.Put(b.layout.Root, rec); err != nil {
		b.logger.Warn(fmt.Sprintf("could not save the build record of %s: %v", target.Name, err))
	}
}
