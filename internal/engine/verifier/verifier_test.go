package verifier_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports/mocks"
	"go.trai.ch/launchpad/internal/engine/verifier"
	"go.uber.org/mock/gomock"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tool   string
		output string
		want   string
	}{
		{"node", "node", "v20.11.0\n", "v20.11.0"},
		{"npm", "npm", "10.2.4\n", "10.2.4"},
		{"name stripped", "git", "git version 2.43.0\nextra", "version 2.43.0"},
		{"leading blank lines", "node", "\n\n  v18.0.0  \n", "v18.0.0"},
		{"empty", "node", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, verifier.ParseVersion(tt.tool, []byte(tt.output)))
		})
	}
}

func TestRunChecks_Tools(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tool       domain.ToolRequirement
		setup      func(r *mocks.MockCommandRunnerMockRecorder)
		wantPassed bool
		wantDetail string
	}{
		{
			name: "found",
			tool: domain.ToolRequirement{Name: "node"},
			setup: func(r *mocks.MockCommandRunnerMockRecorder) {
				r.LookPath("node").Return("/usr/bin/node", nil)
				r.Capture(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, cmd domain.Command) (domain.CaptureResult, error) {
						assert.Equal(t, []string{"/usr/bin/node", "--version"}, cmd.Argv)
						return domain.CaptureResult{Stdout: []byte("v20.11.0\n")}, nil
					})
			},
			wantPassed: true,
			wantDetail: "v20.11.0",
		},
		{
			name: "missing carries hint",
			tool: domain.ToolRequirement{Name: "node", Hint: "install it from https://nodejs.org"},
			setup: func(r *mocks.MockCommandRunnerMockRecorder) {
				r.LookPath("node").Return("", errors.New("not found"))
			},
			wantDetail: "not found on PATH; install it from https://nodejs.org",
		},
		{
			name: "version command fails",
			tool: domain.ToolRequirement{Name: "npm"},
			setup: func(r *mocks.MockCommandRunnerMockRecorder) {
				r.LookPath("npm").Return("/usr/bin/npm", nil)
				r.Capture(gomock.Any(), gomock.Any()).Return(domain.CaptureResult{ExitCode: 1}, nil)
			},
			wantDetail: "/usr/bin/npm --version exited with code 1",
		},
		{
			name: "custom version args and stderr output",
			tool: domain.ToolRequirement{Name: "python", VersionArgs: []string{"-V"}},
			setup: func(r *mocks.MockCommandRunnerMockRecorder) {
				r.LookPath("python").Return("/usr/bin/python", nil)
				r.Capture(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, cmd domain.Command) (domain.CaptureResult, error) {
						assert.Equal(t, []string{"/usr/bin/python", "-V"}, cmd.Argv)
						return domain.CaptureResult{Stderr: []byte("Python 3.12.1\n")}, nil
					})
			},
			wantPassed: true,
			wantDetail: "Python 3.12.1",
		},
		{
			name: "meets minimum",
			tool: domain.ToolRequirement{Name: "node", MinVersion: "18"},
			setup: func(r *mocks.MockCommandRunnerMockRecorder) {
				r.LookPath("node").Return("/usr/bin/node", nil)
				r.Capture(gomock.Any(), gomock.Any()).Return(domain.CaptureResult{Stdout: []byte("v20.11.0")}, nil)
			},
			wantPassed: true,
			wantDetail: "v20.11.0",
		},
		{
			name: "below minimum",
			tool: domain.ToolRequirement{Name: "node", MinVersion: "18.0.0"},
			setup: func(r *mocks.MockCommandRunnerMockRecorder) {
				r.LookPath("node").Return("/usr/bin/node", nil)
				r.Capture(gomock.Any(), gomock.Any()).Return(domain.CaptureResult{Stdout: []byte("v16.20.2")}, nil)
			},
			wantDetail: "version v16.20.2 is older than the required 18.0.0",
		},
		{
			name: "unparseable version with minimum",
			tool: domain.ToolRequirement{Name: "node", MinVersion: "18"},
			setup: func(r *mocks.MockCommandRunnerMockRecorder) {
				r.LookPath("node").Return("/usr/bin/node", nil)
				r.Capture(gomock.Any(), gomock.Any()).Return(domain.CaptureResult{Stdout: []byte("nightly")}, nil)
			},
			wantDetail: `cannot determine version from "nightly", need 18 or newer`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			runner := mocks.NewMockCommandRunner(ctrl)
			tt.setup(runner.EXPECT())

			report := verifier.New(runner, t.TempDir()).RunChecks(context.Background(), []domain.ToolRequirement{tt.tool}, nil)

			require.Len(t, report.Items, 1)
			item := report.Items[0]
			assert.Equal(t, tt.tool.Name, item.Label)
			assert.Equal(t, tt.wantPassed, item.Passed)
			assert.Equal(t, tt.wantDetail, item.Detail)
			assert.Equal(t, tt.wantPassed, report.OK())
		})
	}
}

func TestRunChecks_NoShortCircuit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0o750))
	require.NoError(t, os.Mkdir(filepath.Join(root, "tsconfig.json"), 0o750))

	ctrl := gomock.NewController(t)
	runner := mocks.NewMockCommandRunner(ctrl)
	runner.EXPECT().LookPath("node").Return("", errors.New("not found"))
	runner.EXPECT().LookPath("npm").Return("/usr/bin/npm", nil)
	runner.EXPECT().Capture(gomock.Any(), gomock.Any()).Return(domain.CaptureResult{Stdout: []byte("10.2.4")}, nil)

	report := verifier.New(runner, root).RunChecks(context.Background(),
		[]domain.ToolRequirement{{Name: "node"}, {Name: "npm"}},
		[]domain.RequiredPath{
			{Path: "package.json"},
			{Path: "tsconfig.json"},
			{Path: "webpack.renderer.config.js"},
			{Path: "src", Dir: true},
			{Path: "package.json", Dir: true},
		},
	)

	assert.Equal(t, 3, report.Passed)
	assert.Equal(t, 4, report.Failed)
	assert.False(t, report.OK())

	details := make([]string, 0, len(report.Items))
	for _, item := range report.Items {
		details = append(details, item.Label+": "+item.Detail)
	}
	assert.Equal(t, []string{
		"node: not found on PATH",
		"npm: 10.2.4",
		"package.json: found",
		"tsconfig.json: not a regular file",
		"webpack.renderer.config.js: missing",
		"src: found",
		"package.json: not a directory",
	}, details)
	assert.Len(t, report.Failures(), 4)
}

func TestDiagnose_DependencyCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	project := &domain.Project{
		Root: root,
		Dependencies: domain.Dependencies{
			CacheDir: filepath.Join(root, "node_modules"),
			Install:  domain.Command{Argv: []string{"npm", "install"}},
		},
	}
	v := verifier.New(mocks.NewMockCommandRunner(gomock.NewController(t)), root)

	report := v.Diagnose(context.Background(), project)
	require.Len(t, report.Items, 1)
	assert.False(t, report.Items[0].Passed)
	assert.Equal(t, `not installed, run "npm install"`, report.Items[0].Detail)

	require.NoError(t, os.Mkdir(project.Dependencies.CacheDir, 0o750))

	report = v.Diagnose(context.Background(), project)
	require.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].Passed)
	assert.Equal(t, "installed (node_modules exists)", report.Items[0].Detail)
}
