// Package app implements the application layer for launchpad.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/launchpad/internal/adapters/linear"
	"go.trai.ch/launchpad/internal/adapters/telemetry"
	"go.trai.ch/launchpad/internal/adapters/watcher"
	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/launchpad/internal/engine/builder"
	"go.trai.ch/launchpad/internal/engine/installer"
	"go.trai.ch/launchpad/internal/engine/retry"
	"go.trai.ch/launchpad/internal/engine/supervisor"
	"go.trai.ch/launchpad/internal/engine/verifier"
	"go.trai.ch/zerr"
)

// App is the lifecycle controller. It owns the supervisor and with it the only
// live application process.
type App struct {
	configLoader ports.ConfigLoader
	runner       ports.CommandRunner
	logger       ports.Logger
	inspector    ports.StalenessInspector
	verifier     ports.ArtifactVerifier
	hasher       ports.Hasher
	store        ports.BuildRecordStore
	prompter     ports.Prompter
	watcher      ports.Watcher

	stdout    io.Writer
	stderr    io.Writer
	retryOpts []retry.Option
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	runner ports.CommandRunner,
	log ports.Logger,
	inspector ports.StalenessInspector,
	artifacts ports.ArtifactVerifier,
	hasher ports.Hasher,
	store ports.BuildRecordStore,
	prompter ports.Prompter,
	fileWatcher ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		runner:       runner,
		logger:       log,
		inspector:    inspector,
		verifier:     artifacts,
		hasher:       hasher,
		store:        store,
		prompter:     prompter,
		watcher:      fileWatcher,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput redirects the console renderer.
// This is primarily used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithRetryOptions passes opts to the retried install and build steps.
// This is primarily used for testing to skip the pauses between attempts.
func (a *App) WithRetryOptions(opts ...retry.Option) *App {
	a.retryOpts = append(a.retryOpts, opts...)
	return a
}

// LaunchOptions configuration for the Launch method.
type LaunchOptions struct {
	Mode domain.Mode
	// ConfigPath points at an explicit config file. Empty means discovery from Dir.
	ConfigPath string
	// Dir is where config discovery starts. Empty means the working directory.
	Dir string
	// Watch warns when sources change while the application runs.
	Watch bool
}

// Launch runs the launch sequence for opts.Mode and blocks until the application
// exits or ctx is cancelled. It stops at the first step that fails.
func (a *App) Launch(ctx context.Context, opts LaunchOptions) error {
	project, err := a.loadProject(opts)
	if err != nil {
		return err
	}

	if opts.Mode == domain.ModeCheck {
		return a.Check(ctx, project)
	}

	profile, ok := project.Profile(domain.ProfileFor(opts.Mode))
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrUnknownProfile, "no launch profile for this mode"), "mode", string(opts.Mode))
	}

	renderer := linear.NewRenderer(a.stdout, a.stderr)
	tracer := telemetry.NewOTelTracer("launchpad").WithRenderer(renderer)
	defer func() {
		_ = tracer.Shutdown(context.WithoutCancel(ctx))
	}()

	if opts.Mode == domain.ModeFast {
		a.logger.Info("fast mode: skipping environment checks, dependency install and build")
	} else {
		if err := a.prepare(ctx, tracer, project, profile); err != nil {
			return err
		}
	}

	return a.run(ctx, tracer, project, profile, opts.Watch)
}

func (a *App) loadProject(opts LaunchOptions) (*domain.Project, error) {
	var (
		project *domain.Project
		err     error
	)
	if opts.ConfigPath != "" {
		project, err = a.configLoader.LoadFile(opts.ConfigPath)
	} else {
		dir := opts.Dir
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return nil, zerr.Wrap(err, "failed to determine working directory")
			}
		}
		project, err = a.configLoader.Load(dir)
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

func (a *App) prepare(ctx context.Context, tracer ports.Tracer, project *domain.Project, profile domain.LaunchProfile) error {
	if err := a.verifyEnvironment(ctx, project); err != nil {
		return err
	}

	inst := installer.New(a.runner, tracer, a.logger, project.Dependencies).WithRetryOptions(a.retryOpts...)
	outcome, err := inst.EnsureInstalled(ctx)
	if err != nil {
		return err
	}
	if outcome == installer.OutcomeInstalled {
		a.logger.Info("dependencies installed")
	}

	if !profile.Build {
		return nil
	}

	b := builder.New(a.runner, a.inspector, a.verifier, a.hasher, a.store, tracer, a.logger, builder.Layout{
		Root:      project.Root,
		ErrorLog:  project.ErrorLog,
		Artifacts: project.Artifacts,
	}).WithRetryOptions(a.retryOpts...)

	report := b.BuildIfStale(ctx, project.Targets)
	if report.OK() {
		if len(report.Rebuilt) == 0 {
			a.logger.Info("build outputs are up to date")
		}
		return nil
	}

	if report.Failure.LogPath != "" {
		a.logger.Info(fmt.Sprintf("the full build output was saved to %s", report.Failure.LogPath))
	}
	return report.Failure.Err
}

func (a *App) verifyEnvironment(ctx context.Context, project *domain.Project) error {
	v := verifier.New(a.runner, project.Root).WithEnv(project.Environment)
	report := v.RunChecks(ctx, project.Tools, project.RequiredPaths)
	a.printReport(report, false)
	if report.OK() {
		return nil
	}

	if a.prompter.Interactive() {
		yes, err := a.prompter.Confirm("Run the detailed environment diagnosis?")
		if err != nil {
			a.logger.Warn(fmt.Sprintf("could not read the answer: %v", err))
		}
		if yes {
			a.printReport(v.Diagnose(ctx, project), true)
		}
	} else {
		a.logger.Info("run launchpad --check for a detailed diagnosis")
	}

	return zerr.With(
		zerr.Wrap(domain.ErrEnvironmentUnmet, fmt.Sprintf("%d environment check(s) failed", report.Failed)),
		"root", project.Root,
	)
}

// Check runs the full environment diagnosis and reports whether every check passed.
func (a *App) Check(ctx context.Context, project *domain.Project) error {
	v := verifier.New(a.runner, project.Root).WithEnv(project.Environment)
	report := v.Diagnose(ctx, project)
	a.printReport(report, true)
	if !report.OK() {
		return zerr.Wrap(domain.ErrEnvironmentUnmet, fmt.Sprintf("%d environment check(s) failed", report.Failed))
	}
	return nil
}

func (a *App) printReport(report domain.CheckReport, summary bool) {
	for _, item := range report.Items {
		if item.Passed {
			a.logger.Info(fmt.Sprintf("%s: %s", item.Label, item.Detail))
		} else {
			a.logger.Warn(fmt.Sprintf("%s: %s", item.Label, item.Detail))
		}
	}
	if summary {
		a.logger.Info(fmt.Sprintf("%d check(s) passed, %d failed", report.Passed, report.Failed))
	}
}

func (a *App) run(ctx context.Context, tracer ports.Tracer, project *domain.Project, profile domain.LaunchProfile, watch bool) (err error) {
	spanCtx, span := tracer.Start(ctx, profile.Name)
	defer func() {
		if err != nil && !errors.Is(err, domain.ErrCancelled) {
			span.RecordError(err)
		}
		span.End()
	}()
	span.SetAttribute("command", profile.Command.String())

	sup := supervisor.New(a.runner, a.logger, supervisor.ClassifierFor(profile), span).WithName(profile.Name)
	if err := sup.Start(profile.Command); err != nil {
		return err
	}
	// No path out of here may leave the child behind.
	defer func() {
		if termErr := sup.Terminate(profile.GracePeriod); termErr != nil {
			a.logger.Error(termErr)
		}
	}()

	if watch && a.watcher != nil {
		watchCtx, stopWatching := context.WithCancel(spanCtx)
		var wg sync.WaitGroup
		wg.Go(func() {
			a.watchSources(watchCtx, project.Targets)
		})
		defer func() {
			stopWatching()
			wg.Wait()
		}()
	}

	st, err := sup.AwaitReady(spanCtx, profile.StartupTimeout)
	switch {
	case errors.Is(err, domain.ErrSupervisionTimedOut) && profile.OnTimeout == domain.TimeoutWait:
		a.logger.Warn(fmt.Sprintf("no readiness signal within %s, waiting for the application to exit", profile.StartupTimeout))
	case errors.Is(err, domain.ErrSupervisionTimedOut):
		a.logger.Warn(fmt.Sprintf("application did not become ready within %s, stopping it", profile.StartupTimeout))
		return err
	case errors.Is(err, domain.ErrCancelled):
		a.logger.Info("interrupted, stopping the application")
		return err
	case err != nil:
		return err
	case st.Phase == domain.PhaseExited && profile.RequireReady:
		return zerr.With(
			zerr.Wrap(domain.ErrProcessCrashed, profile.Command.String()+" exited before it became ready"),
			"exit_code", st.ExitCode,
		)
	case st.Phase == domain.PhaseExited:
		a.logger.Info("application exited")
		return nil
	default:
		a.logger.Info("application is ready, press Ctrl+C to stop it")
	}

	code, err := sup.Wait(spanCtx)
	if err != nil {
		a.logger.Info("interrupted, stopping the application")
		return err
	}
	if code != 0 {
		return zerr.With(zerr.Wrap(domain.ErrProcessCrashed, profile.Command.String()), "exit_code", code)
	}
	a.logger.Info("application exited")
	return nil
}

// watchSources warns about changes to build inputs while the application runs.
// Nothing is rebuilt: the running process keeps the outputs it started with.
func (a *App) watchSources(ctx context.Context, targets []domain.BuildTarget) {
	var roots []string
	for _, t := range targets {
		roots = append(roots, t.SourceDir)
		roots = append(roots, t.ExtraInputs...)
	}

	if err := a.watcher.Start(ctx, roots...); err != nil {
		a.logger.Warn(fmt.Sprintf("file watching disabled: %v", err))
		return
	}
	defer func() { _ = a.watcher.Stop() }()

	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		a.reportChanges(targets, paths)
	})
	for event := range a.watcher.Events() {
		debouncer.Add(event.Path)
	}
	debouncer.Flush()
}

func (a *App) reportChanges(targets []domain.BuildTarget, paths []string) {
	for _, t := range targets {
		var changed []string
		for _, p := range paths {
			if t.Owns(p) {
				changed = append(changed, filepath.Base(p))
			}
		}
		if len(changed) > 0 {
			a.logger.Warn(fmt.Sprintf("%s sources changed (%v), restart to rebuild", t.Name, changed))
		}
	}
}
