package domain

import "time"

// Mode selects which steps of the launch sequence run.
type Mode string

const (
	// ModeProduction verifies, installs, builds and launches the packaged app.
	ModeProduction Mode = "production"
	// ModeDevelopment verifies, installs and starts the dev server.
	ModeDevelopment Mode = "development"
	// ModeFast launches the packaged app without any preparation.
	ModeFast Mode = "fast"
	// ModeCheck only runs the full environment diagnosis.
	ModeCheck Mode = "check"
)

// TimeoutPolicy decides what happens when a launch never reports readiness.
type TimeoutPolicy string

const (
	// TimeoutAbort terminates the child and fails the run.
	TimeoutAbort TimeoutPolicy = "abort"
	// TimeoutWait keeps the child running and blocks until it exits.
	TimeoutWait TimeoutPolicy = "wait"
)

// LaunchProfile describes how to start and supervise the application.
type LaunchProfile struct {
	Name           string
	Command        Command
	StartupTimeout time.Duration
	GracePeriod    time.Duration
	ReadyKeywords  []string
	ErrorKeywords  []string
	// BenignKeywords downgrade a line with an error keyword to Suppressed.
	BenignKeywords []string
	// Build runs the Build Coordinator before the launch.
	Build     bool
	OnTimeout TimeoutPolicy
	// RequireReady fails the run when the child exits before readiness, even
	// with code 0. Without it a clean early exit counts as a normal shutdown.
	RequireReady bool
}

// Dependencies describes the package manager's dependency cache.
type Dependencies struct {
	// CacheDir's presence is taken as proof of a completed install.
	CacheDir string
	Install  Command
	Retry    RetryPolicy
}

// Project is the fully resolved launcher configuration for one project root.
type Project struct {
	Root          string
	Tools         []ToolRequirement
	RequiredPaths []RequiredPath
	Dependencies  Dependencies
	Targets       []BuildTarget
	// Artifacts must exist after all targets have been processed.
	Artifacts []string
	Profiles  map[string]LaunchProfile
	ErrorLog  string
	// Environment is overlaid on every external invocation.
	Environment map[string]string
}

// Profile returns the launch profile with the given name.
func (p *Project) Profile(name string) (LaunchProfile, bool) {
	profile, ok := p.Profiles[name]
	return profile, ok
}

// ProfileFor maps a run mode to the name of its launch profile.
func ProfileFor(mode Mode) string {
	if mode == ModeDevelopment {
		return string(ModeDevelopment)
	}
	return string(ModeProduction)
}
