package app_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/launchpad/internal/app"
	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/launchpad/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// scriptedProcess prints its lines, then either exits with code or keeps
// running until it is interrupted.
type scriptedProcess struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu         sync.Mutex
	interrupts int
	code       int
	once       sync.Once
	done       chan struct{}
}

func startScripted(lines []string, exitCode *int) *scriptedProcess {
	r, w := io.Pipe()
	p := &scriptedProcess{r: r, w: w, done: make(chan struct{})}
	go func() {
		for _, line := range lines {
			if _, err := w.Write([]byte(line + "\n")); err != nil {
				return
			}
		}
		if exitCode != nil {
			p.exit(*exitCode)
		}
	}()
	return p
}

func (p *scriptedProcess) Pid() int          { return 7 }
func (p *scriptedProcess) Output() io.Reader { return p.r }

func (p *scriptedProcess) Wait() (int, error) {
	<-p.done
	return p.code, nil
}

func (p *scriptedProcess) Interrupt() error {
	p.mu.Lock()
	p.interrupts++
	p.mu.Unlock()
	p.exit(130)
	return nil
}

func (p *scriptedProcess) Kill() error {
	p.exit(-1)
	return nil
}

func (p *scriptedProcess) exit(code int) {
	p.once.Do(func() {
		p.code = code
		_ = p.w.Close()
		close(p.done)
	})
}

func (p *scriptedProcess) interrupted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interrupts
}

func exitWith(code int) *int { return &code }

var (
	electron = domain.Command{Argv: []string{"npx", "electron", "dist/main/main.js"}}
	devCmd   = domain.Command{Argv: []string{"npm", "run", "dev"}}
	install  = domain.Command{Argv: []string{"npm", "install"}}
)

type appTest struct {
	loader    *mocks.MockConfigLoader
	runner    *mocks.MockCommandRunner
	logger    *mocks.MockLogger
	inspector *mocks.MockStalenessInspector
	verifier  *mocks.MockArtifactVerifier
	hasher    *mocks.MockHasher
	store     *mocks.MockBuildRecordStore
	prompter  *mocks.MockPrompter
	watcher   *mocks.MockWatcher
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	project   *domain.Project
	app       *app.App
}

func setupAppTest(t *testing.T) *appTest {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o600))

	s := &appTest{
		loader:    mocks.NewMockConfigLoader(ctrl),
		runner:    mocks.NewMockCommandRunner(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
		inspector: mocks.NewMockStalenessInspector(ctrl),
		verifier:  mocks.NewMockArtifactVerifier(ctrl),
		hasher:    mocks.NewMockHasher(ctrl),
		store:     mocks.NewMockBuildRecordStore(ctrl),
		prompter:  mocks.NewMockPrompter(ctrl),
		watcher:   mocks.NewMockWatcher(ctrl),
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		project: &domain.Project{
			Root:          root,
			RequiredPaths: []domain.RequiredPath{{Path: "package.json"}},
			Dependencies: domain.Dependencies{
				CacheDir: filepath.Join(root, "node_modules"),
				Install:  install,
				Retry:    domain.RetryPolicy{MaxAttempts: 1},
			},
			Targets: []domain.BuildTarget{{
				Name:      "main",
				SourceDir: filepath.Join(root, "src", "main"),
				Artifact:  filepath.Join(root, "dist", "main", "main.js"),
				Command:   domain.Command{Argv: []string{"npm", "run", "build:main"}},
			}},
			Artifacts: []string{"dist/index.html"},
			ErrorLog:  filepath.Join(root, domain.BuildErrorLogName),
			Profiles: map[string]domain.LaunchProfile{
				"production": {
					Name:           "production",
					Command:        electron,
					StartupTimeout: 30 * time.Second,
					GracePeriod:    5 * time.Second,
					ReadyKeywords:  []string{"window created"},
					ErrorKeywords:  []string{"error"},
					BenignKeywords: []string{"gpu"},
					Build:          true,
					OnTimeout:      domain.TimeoutAbort,
				},
				"development": {
					Name:           "development",
					Command:        devCmd,
					StartupTimeout: 60 * time.Second,
					GracePeriod:    5 * time.Second,
					ReadyKeywords:  []string{"compiled successfully"},
					OnTimeout:      domain.TimeoutAbort,
					RequireReady:   true,
				},
			},
		},
	}
	s.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	s.loader.EXPECT().Load(root).Return(s.project, nil).AnyTimes()

	s.app = app.New(s.loader, s.runner, s.logger, s.inspector, s.verifier, s.hasher, s.store, s.prompter, s.watcher).
		WithOutput(s.stdout, s.stderr)
	return s
}

func (s *appTest) opts(mode domain.Mode) app.LaunchOptions {
	return app.LaunchOptions{Mode: mode, Dir: s.project.Root}
}

func (s *appTest) installed(t *testing.T) {
	t.Helper()
	require.NoError(t, os.Mkdir(s.project.Dependencies.CacheDir, 0o750))
}

func (s *appTest) expectFreshBuild() {
	s.inspector.EXPECT().Inspect(s.project.Targets[0]).Return(domain.StalenessVerdict{Target: "main"})
	s.verifier.EXPECT().MissingArtifacts(s.project.Root, s.project.Artifacts).Return(nil)
}

func TestLaunch_Production(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)
		s.expectFreshBuild()

		s.runner.EXPECT().Start(electron).Return(
			startScripted([]string{"loading", "Window created", "bye"}, exitWith(0)), nil)

		err := s.app.Launch(context.Background(), s.opts(domain.ModeProduction))

		require.NoError(t, err)
		assert.Equal(t, "[production] loading\n[production] Window created\n[production] bye\n", s.stdout.String())
		assert.Contains(t, s.stderr.String(), "[production]")
		assert.Contains(t, s.stderr.String(), "done in")
	})
}

func TestLaunch_Development(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)

		// The dev server compiles itself: nothing is inspected or built.
		s.runner.EXPECT().Start(devCmd).Return(
			startScripted([]string{"webpack compiled successfully"}, exitWith(0)), nil)

		require.NoError(t, s.app.Launch(context.Background(), s.opts(domain.ModeDevelopment)))
	})
}

func TestLaunch_Fast(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		// No cache, no checks, no build: fast mode trusts the existing outputs.
		s.runner.EXPECT().Start(electron).Return(startScripted([]string{"window created"}, exitWith(0)), nil)

		require.NoError(t, s.app.Launch(context.Background(), s.opts(domain.ModeFast)))
		assert.NoDirExists(t, s.project.Dependencies.CacheDir)
	})
}

func TestLaunch_InstallsMissingDependencies(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.runner.EXPECT().Stream(gomock.Any(), install, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ domain.Command, w io.Writer) (int, error) {
				_, _ = w.Write([]byte("added 812 packages\n"))
				return 0, os.Mkdir(s.project.Dependencies.CacheDir, 0o750)
			})
		s.expectFreshBuild()
		s.runner.EXPECT().Start(electron).Return(startScripted([]string{"window created"}, exitWith(0)), nil)

		require.NoError(t, s.app.Launch(context.Background(), s.opts(domain.ModeProduction)))
		assert.Contains(t, s.stdout.String(), "[install] added 812 packages")
	})
}

func TestLaunch_EnvironmentUnmet(t *testing.T) {
	tests := []struct {
		name        string
		interactive bool
		answer      bool
	}{
		{name: "non-interactive"},
		{name: "interactive declined", interactive: true},
		{name: "interactive diagnosis", interactive: true, answer: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupAppTest(t)
			require.NoError(t, os.Remove(filepath.Join(s.project.Root, "package.json")))

			s.logger.EXPECT().Warn("package.json: missing").Times(map[bool]int{false: 1, true: 2}[tt.answer])
			s.prompter.EXPECT().Interactive().Return(tt.interactive)
			if tt.interactive {
				s.prompter.EXPECT().Confirm("Run the detailed environment diagnosis?").Return(tt.answer, nil)
			}
			if tt.answer {
				s.logger.EXPECT().Warn(`dependencies: not installed, run "npm install"`)
			}

			err := s.app.Launch(context.Background(), s.opts(domain.ModeProduction))

			require.ErrorIs(t, err, domain.ErrEnvironmentUnmet)
		})
	}
}

func TestLaunch_BuildFailureStopsLaunch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)

		s.inspector.EXPECT().Inspect(gomock.Any()).Return(domain.StalenessVerdict{Stale: true, Reason: "artifact is missing"})
		s.hasher.EXPECT().Fingerprint(gomock.Any()).Return("", nil)
		s.runner.EXPECT().Capture(gomock.Any(), gomock.Any()).Return(domain.CaptureResult{
			ExitCode: 2,
			Stderr:   []byte("error TS2304"),
		}, nil)

		err := s.app.Launch(context.Background(), s.opts(domain.ModeProduction))

		require.ErrorIs(t, err, domain.ErrBuildFailed)
		assert.FileExists(t, s.project.ErrorLog)
	})
}

func TestLaunch_StartupTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)
		s.expectFreshBuild()

		proc := startScripted([]string{"loading"}, nil)
		s.runner.EXPECT().Start(electron).Return(proc, nil)
		s.logger.EXPECT().Warn("application did not become ready within 30s, stopping it")

		start := time.Now()
		err := s.app.Launch(context.Background(), s.opts(domain.ModeProduction))

		require.ErrorIs(t, err, domain.ErrSupervisionTimedOut)
		assert.Equal(t, 30*time.Second, time.Since(start))
		assert.Equal(t, 1, proc.interrupted())
	})
}

func TestLaunch_TimeoutPolicyWait(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)
		profile := s.project.Profiles["development"]
		profile.OnTimeout = domain.TimeoutWait
		s.project.Profiles["development"] = profile

		proc := startScripted(nil, nil)
		s.runner.EXPECT().Start(devCmd).Return(proc, nil)
		s.logger.EXPECT().Warn("no readiness signal within 1m0s, waiting for the application to exit")

		go func() {
			time.Sleep(90 * time.Second)
			proc.exit(0)
		}()

		require.NoError(t, s.app.Launch(context.Background(), s.opts(domain.ModeDevelopment)))
		assert.Zero(t, proc.interrupted())
	})
}

func TestLaunch_InterruptTerminatesChild(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)
		s.expectFreshBuild()

		proc := startScripted([]string{"window created"}, nil)
		s.runner.EXPECT().Start(electron).Return(proc, nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(time.Minute)
			cancel()
		}()

		err := s.app.Launch(ctx, s.opts(domain.ModeProduction))

		require.ErrorIs(t, err, domain.ErrCancelled)
		assert.Equal(t, 1, proc.interrupted())
	})
}

func TestLaunch_CrashAfterReady(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)
		s.expectFreshBuild()

		s.runner.EXPECT().Start(electron).Return(startScripted([]string{"window created"}, exitWith(3)), nil)

		err := s.app.Launch(context.Background(), s.opts(domain.ModeProduction))

		require.ErrorIs(t, err, domain.ErrProcessCrashed)
	})
}

func TestLaunch_CleanExitBeforeReady(t *testing.T) {
	tests := []struct {
		name    string
		mode    domain.Mode
		cmd     domain.Command
		wantErr error
	}{
		{name: "production exit is a normal shutdown", mode: domain.ModeFast, cmd: electron},
		{name: "dev server exit fails the run", mode: domain.ModeDevelopment, cmd: devCmd, wantErr: domain.ErrProcessCrashed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				s := setupAppTest(t)
				s.installed(t)

				s.runner.EXPECT().Start(tt.cmd).Return(startScripted([]string{"starting"}, exitWith(0)), nil)

				err := s.app.Launch(context.Background(), s.opts(tt.mode))

				if tt.wantErr == nil {
					require.NoError(t, err)
					return
				}
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "exited before it became ready")
			})
		})
	}
}

func TestLaunch_SpawnFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)
		s.expectFreshBuild()

		s.runner.EXPECT().Start(electron).Return(nil, domain.ErrSpawnFailed)

		err := s.app.Launch(context.Background(), s.opts(domain.ModeProduction))

		require.ErrorIs(t, err, domain.ErrSpawnFailed)
	})
}

func TestLaunch_UnknownProfile(t *testing.T) {
	s := setupAppTest(t)
	delete(s.project.Profiles, "development")

	err := s.app.Launch(context.Background(), s.opts(domain.ModeDevelopment))

	require.ErrorIs(t, err, domain.ErrUnknownProfile)
}

func TestLaunch_ConfigError(t *testing.T) {
	s := setupAppTest(t)
	s.loader.EXPECT().LoadFile("broken.yaml").Return(nil, domain.ErrConfigParseFailed)

	err := s.app.Launch(context.Background(), app.LaunchOptions{Mode: domain.ModeProduction, ConfigPath: "broken.yaml"})

	require.ErrorIs(t, err, domain.ErrConfigParseFailed)
}

func TestLaunch_Check(t *testing.T) {
	s := setupAppTest(t)
	s.logger.EXPECT().Warn(`dependencies: not installed, run "npm install"`)

	err := s.app.Launch(context.Background(), s.opts(domain.ModeCheck))
	require.ErrorIs(t, err, domain.ErrEnvironmentUnmet)

	s.installed(t)
	require.NoError(t, s.app.Launch(context.Background(), s.opts(domain.ModeCheck)))
}

func TestLaunch_WatchReportsChangedSources(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := setupAppTest(t)
		s.installed(t)
		s.project.Targets[0].Extensions = []string{".ts"}
		s.expectFreshBuild()

		events := make(chan ports.WatchEvent, 1)
		s.watcher.EXPECT().Start(gomock.Any(), s.project.Targets[0].SourceDir).DoAndReturn(
			func(ctx context.Context, _ ...string) error {
				go func() {
					<-ctx.Done()
					close(events)
				}()
				return nil
			})
		s.watcher.EXPECT().Events().Return(func(yield func(ports.WatchEvent) bool) {
			for ev := range events {
				if !yield(ev) {
					return
				}
			}
		})
		s.watcher.EXPECT().Stop().Return(nil)
		s.logger.EXPECT().Warn("main sources changed ([main.ts]), restart to rebuild")

		proc := startScripted([]string{"window created"}, nil)
		s.runner.EXPECT().Start(electron).Return(proc, nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(time.Second)
			events <- ports.WatchEvent{Path: filepath.Join(s.project.Targets[0].SourceDir, "main.ts"), Operation: ports.OpWrite}
			time.Sleep(time.Second)
			cancel()
		}()

		opts := s.opts(domain.ModeProduction)
		opts.Watch = true
		err := s.app.Launch(ctx, opts)

		require.ErrorIs(t, err, domain.ErrCancelled)
	})
}
