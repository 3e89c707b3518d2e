package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/launchpad/internal/adapters/config"
	"go.trai.ch/launchpad/internal/adapters/fs"
	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return config.NewLoader(mockLogger)
}

func TestLoader_Load_Defaults(t *testing.T) {
	root := t.TempDir()

	project, err := newLoader(t).Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, project.Root)
	assert.Equal(t, filepath.Join(root, domain.BuildErrorLogName), project.ErrorLog)

	require.Len(t, project.Tools, 2)
	assert.Equal(t, "node", project.Tools[0].Name)
	assert.Contains(t, project.Tools[0].Hint, "https://nodejs.org")
	assert.Equal(t, "npm", project.Tools[1].Name)

	assert.Contains(t, project.RequiredPaths, domain.RequiredPath{Path: "src", Dir: true})
	assert.Contains(t, project.RequiredPaths, domain.RequiredPath{Path: "package.json"})

	assert.Equal(t, filepath.Join(root, "node_modules"), project.Dependencies.CacheDir)
	assert.Equal(t, []string{"npm", "install"}, project.Dependencies.Install.Argv)
	assert.Equal(t, root, project.Dependencies.Install.Dir)
	assert.Equal(t, domain.RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}, project.Dependencies.Retry)

	require.Len(t, project.Targets, 2)
	mainTarget, renderer := project.Targets[0], project.Targets[1]
	assert.Equal(t, "main", mainTarget.Name)
	assert.Equal(t, filepath.Join(root, "src", "main"), mainTarget.SourceDir)
	assert.Equal(t, filepath.Join(root, "dist", "main", "main.js"), mainTarget.Artifact)
	assert.Equal(t, domain.SingleAttempt, mainTarget.Retry)
	assert.Equal(t, "renderer", renderer.Name)
	assert.Equal(t, []string{filepath.Join(root, "webpack.renderer.config.js")}, renderer.ExtraInputs)
	assert.Subset(t, renderer.IgnoreDirs, []string{"node_modules", "dist", filepath.Join(root, "dist")})
	assert.Contains(t, mainTarget.IgnoreDirs, filepath.Join(root, "dist", "main"))

	assert.Equal(t, []string{"dist/main/main.js", "dist/renderer.js", "dist/index.html"}, project.Artifacts)

	prod, ok := project.Profile("production")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, prod.StartupTimeout)
	assert.Equal(t, 5*time.Second, prod.GracePeriod)
	assert.Equal(t, "production", prod.Command.Env["NODE_ENV"])
	assert.Equal(t, []string{"gpu"}, prod.BenignKeywords)
	assert.True(t, prod.Build)
	assert.Equal(t, domain.TimeoutAbort, prod.OnTimeout)

	dev, ok := project.Profile("development")
	require.True(t, ok)
	assert.Equal(t, 60*time.Second, dev.StartupTimeout)
	assert.False(t, dev.Build)
	assert.True(t, dev.RequireReady)
	assert.False(t, prod.RequireReady)
	assert.Contains(t, dev.ReadyKeywords, "compiled successfully")
}

func TestLoader_Load_DiscoversParent(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, domain.ConfigFileName, "version: \"1\"\n")
	nested := filepath.Join(root, "src", "renderer")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	project, err := newLoader(t).Load(nested)
	require.NoError(t, err)

	assert.Equal(t, root, project.Root)
	assert.Equal(t, filepath.Join(root, "src", "main"), project.Targets[0].SourceDir)
}

func TestLoader_LoadFile_Overrides(t *testing.T) {
	root := t.TempDir()
	path := createFile(t, root, domain.ConfigFileName, `
version: "1"
environment:
  ELECTRON_MIRROR: https://mirror.example/electron/
tools:
  - name: node
    min_version: 18.0.0
dependencies:
  retry:
    attempts: 5
    backoff: 500ms
targets:
  - name: app
    source: app
    extensions: [".go"]
    artifact: out/app
    cmd: ["go", "build", "-o", "out/app", "./app"]
    ignore: ["vendor"]
    retry:
      attempts: 2
artifacts: ["out/app"]
profiles:
  production:
    cmd: ["out/app"]
    startup_timeout: 10s
    benign_keywords: ["gpu", "vaapi"]
    on_timeout: wait
  staging:
    cmd: ["out/app", "--staging"]
    startup_timeout: 15s
    ready_keywords: ["listening"]
`)

	project, err := newLoader(t).LoadFile(path)
	require.NoError(t, err)

	require.Len(t, project.Tools, 1)
	assert.Equal(t, "18.0.0", project.Tools[0].MinVersion)

	// Untouched dependency fields keep their defaults.
	assert.Equal(t, filepath.Join(root, "node_modules"), project.Dependencies.CacheDir)
	assert.Equal(t, domain.RetryPolicy{MaxAttempts: 5, Backoff: 500 * time.Millisecond}, project.Dependencies.Retry)
	assert.Equal(t, "https://mirror.example/electron/", project.Dependencies.Install.Env["ELECTRON_MIRROR"])

	require.Len(t, project.Targets, 1)
	target := project.Targets[0]
	assert.Equal(t, filepath.Join(root, "app"), target.SourceDir)
	assert.Equal(t, 2, target.Retry.MaxAttempts)
	assert.ElementsMatch(t, []string{"vendor", filepath.Join(root, "node_modules"), filepath.Join(root, "out")}, target.IgnoreDirs)
	assert.Equal(t, "https://mirror.example/electron/", target.Command.Env["ELECTRON_MIRROR"])

	prod, ok := project.Profile("production")
	require.True(t, ok)
	assert.Equal(t, []string{"out/app"}, prod.Command.Argv)
	assert.Equal(t, 10*time.Second, prod.StartupTimeout)
	assert.Equal(t, 5*time.Second, prod.GracePeriod, "grace period inherited from defaults")
	assert.Equal(t, []string{"gpu", "vaapi"}, prod.BenignKeywords)
	assert.Equal(t, "production", prod.Command.Env["NODE_ENV"])
	assert.Equal(t, "https://mirror.example/electron/", prod.Command.Env["ELECTRON_MIRROR"])
	assert.Equal(t, domain.TimeoutWait, prod.OnTimeout)

	staging, ok := project.Profile("staging")
	require.True(t, ok)
	assert.Equal(t, domain.TimeoutAbort, staging.OnTimeout)
	assert.Equal(t, 5*time.Second, staging.GracePeriod)
}

func TestLoader_ArtifactDirDoesNotHideSources(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	root := t.TempDir()
	createFile(t, root, domain.ConfigFileName, `
targets:
  - name: app
    source: app/src
    extensions: [".tsx"]
    artifact: app/dist/renderer.js
    cmd: ["npm", "run", "build"]
artifacts: ["app/dist/renderer.js"]
`)
	artifact := createFile(t, root, filepath.Join("app", "dist", "renderer.js"), "built")
	source := createFile(t, root, filepath.Join("app", "src", "app", "App.tsx"), "export {}")
	require.NoError(t, os.Chtimes(artifact, base, base))
	require.NoError(t, os.Chtimes(source, base.Add(30*time.Minute), base.Add(30*time.Minute)))

	project, err := newLoader(t).Load(root)
	require.NoError(t, err)
	require.Len(t, project.Targets, 1)
	target := project.Targets[0]

	assert.NotContains(t, target.IgnoreDirs, "app")
	assert.Contains(t, target.IgnoreDirs, filepath.Join(root, "app", "dist"))
	assert.True(t, target.Owns(source))

	verdict := fs.NewInspector(fs.NewWalker(), fs.NewResolver()).Inspect(target)
	assert.True(t, verdict.Stale)
	assert.Equal(t, source, verdict.Newest)
}

func TestLoader_LoadFile_Root(t *testing.T) {
	dir := t.TempDir()
	path := createFile(t, dir, filepath.Join("config", domain.ConfigFileName), "root: ..\n")

	project, err := newLoader(t).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, dir, project.Root)
}

func TestLoader_WarnsWithoutReadyKeywords(t *testing.T) {
	root := t.TempDir()
	path := createFile(t, root, domain.ConfigFileName, `
profiles:
  batch:
    cmd: ["./run.sh"]
    startup_timeout: 1s
`)

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn("profile batch has no ready keywords, its startup can only time out")

	_, err := config.NewLoader(mockLogger).LoadFile(path)
	require.NoError(t, err)
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			content: "targets: [",
			wantErr: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:    "target without name",
			content: "targets:\n  - source: src\n    artifact: a\n    cmd: [make]\n    extensions: [.c]\n",
			wantErr: "target has no name",
		},
		{
			name:    "target without command",
			content: "targets:\n  - name: a\n    source: src\n    artifact: a\n    extensions: [.c]\n",
			wantErr: "target has no build command",
		},
		{
			name:    "target without extensions",
			content: "targets:\n  - name: a\n    source: src\n    artifact: a\n    cmd: [make]\n",
			wantErr: "target watches no extensions",
		},
		{
			name: "duplicate target",
			content: "targets:\n" +
				"  - {name: a, source: src, artifact: a, cmd: [make], extensions: [.c]}\n" +
				"  - {name: a, source: src, artifact: b, cmd: [make], extensions: [.c]}\n",
			wantErr: "duplicate target name",
		},
		{
			name:    "unknown timeout policy",
			content: "profiles:\n  production:\n    on_timeout: retry\n",
			wantErr: "unknown timeout policy",
		},
		{
			name:    "profile without command",
			content: "profiles:\n  custom:\n    startup_timeout: 1s\n",
			wantErr: "profile has no command",
		},
		{
			name:    "profile without timeout",
			content: "profiles:\n  custom:\n    cmd: [./app]\n    ready_keywords: [ready]\n",
			wantErr: "startup timeout must be positive",
		},
		{
			name:    "negative retry",
			content: "dependencies:\n  retry:\n    attempts: -1\n",
			wantErr: "retry attempts must not be negative",
		},
		{
			name:    "invalid duration",
			content: "profiles:\n  production:\n    startup_timeout: soon\n",
			wantErr: domain.ErrConfigParseFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createFile(t, t.TempDir(), domain.ConfigFileName, tt.content)

			_, err := newLoader(t).LoadFile(path)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoader_LoadFile_Missing(t *testing.T) {
	_, err := newLoader(t).LoadFile(filepath.Join(t.TempDir(), domain.ConfigFileName))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigReadFailed.Error())
}
