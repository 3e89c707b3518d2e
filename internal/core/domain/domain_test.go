package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/launchpad/internal/core/domain"
)

func TestCommand_WithEnv(t *testing.T) {
	base := domain.Command{Argv: []string{"npm", "run", "build"}, Env: map[string]string{"A": "1", "B": "2"}}

	merged := base.WithEnv(map[string]string{"B": "3", "C": "4"})

	assert.Equal(t, map[string]string{"A": "1", "B": "3", "C": "4"}, merged.Env)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, base.Env, "original must not be mutated")
	assert.Equal(t, "npm run build", merged.String())
}

func TestCommand_WithEnvEmpty(t *testing.T) {
	base := domain.Command{Argv: []string{"npm"}}
	assert.Nil(t, base.WithEnv(nil).Env)
}

func TestCommand_IsEmpty(t *testing.T) {
	assert.True(t, domain.Command{}.IsEmpty())
	assert.True(t, domain.Command{Argv: []string{""}}.IsEmpty())
	assert.False(t, domain.Command{Argv: []string{"node"}}.IsEmpty())
}

func TestRetryPolicy_Attempts(t *testing.T) {
	assert.Equal(t, 1, domain.RetryPolicy{}.Attempts())
	assert.Equal(t, 1, domain.RetryPolicy{MaxAttempts: -2}.Attempts())
	assert.Equal(t, 3, domain.RetryPolicy{MaxAttempts: 3}.Attempts())
	assert.Equal(t, 1, domain.SingleAttempt.Attempts())
}

func TestCheckReport(t *testing.T) {
	var report domain.CheckReport
	report.Add(domain.CheckResult{Label: "node", Passed: true})
	report.Add(domain.CheckResult{Label: "npm", Passed: false, Detail: "install Node.js"})
	report.Add(domain.CheckResult{Label: "package.json", Passed: true})

	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.OK())
	assert.Len(t, report.Items, 3)
	assert.Equal(t, "npm", report.Failures()[0].Label)
}

func TestBuildTarget_Owns(t *testing.T) {
	target := domain.BuildTarget{
		Name:        "renderer",
		SourceDir:   filepath.Join("proj", "src", "renderer"),
		Extensions:  []string{".ts", ".tsx"},
		ExtraInputs: []string{filepath.Join("proj", "webpack.renderer.config.js")},
		IgnoreDirs:  []string{"node_modules"},
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"watched file", filepath.Join("proj", "src", "renderer", "App.tsx"), true},
		{"nested watched file", filepath.Join("proj", "src", "renderer", "a", "b.ts"), true},
		{"wrong extension", filepath.Join("proj", "src", "renderer", "notes.md"), false},
		{"outside tree", filepath.Join("proj", "src", "main", "main.ts"), false},
		{"ignored dir", filepath.Join("proj", "src", "renderer", "node_modules", "x.ts"), false},
		{"extra input", filepath.Join("proj", "webpack.renderer.config.js"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, target.Owns(tt.path))
		})
	}
}

func TestBuildReport_OK(t *testing.T) {
	assert.True(t, domain.BuildReport{Rebuilt: []string{"main"}}.OK())
	assert.False(t, domain.BuildReport{Failure: &domain.BuildFailure{Target: "main"}}.OK())
}

func TestProject_Profile(t *testing.T) {
	project := &domain.Project{Profiles: map[string]domain.LaunchProfile{
		"production": {Name: "production"},
	}}

	profile, ok := project.Profile(domain.ProfileFor(domain.ModeFast))
	assert.True(t, ok)
	assert.Equal(t, "production", profile.Name)

	_, ok = project.Profile(domain.ProfileFor(domain.ModeDevelopment))
	assert.False(t, ok)
}

func TestLayout(t *testing.T) {
	assert.Equal(t, filepath.Join(".launchpad", "store"), domain.DefaultStorePath())
	assert.Equal(t, filepath.Join("root", "build_error.log"), domain.DefaultBuildErrorLogPath("root"))
}

func TestBuildTarget_Owns_AbsoluteIgnore(t *testing.T) {
	root := t.TempDir()
	target := domain.BuildTarget{
		SourceDir:  filepath.Join(root, "app"),
		Extensions: []string{".tsx"},
		IgnoreDirs: []string{filepath.Join(root, "app", "dist")},
	}

	assert.False(t, target.Owns(filepath.Join(root, "app", "dist", "App.tsx")))
	assert.True(t, target.Owns(filepath.Join(root, "app", "src", "dist", "App.tsx")))
	assert.True(t, target.Owns(filepath.Join(root, "app", "app", "App.tsx")))
}

func TestIgnoresDir(t *testing.T) {
	root := t.TempDir()
	ignores := []string{"node_modules", "dist*", filepath.Join(root, "out")}

	assert.True(t, domain.IgnoresDir(ignores, filepath.Join(root, "a", "node_modules")))
	assert.True(t, domain.IgnoresDir(ignores, filepath.Join(root, "dist-electron")))
	assert.True(t, domain.IgnoresDir(ignores, filepath.Join(root, "out")))
	assert.False(t, domain.IgnoresDir(ignores, filepath.Join(root, "src", "out")))
	assert.False(t, domain.IgnoresDir(ignores, filepath.Join(root, "src")))
}
