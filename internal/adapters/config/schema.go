package config

import "time"

// Launchfile represents the structure of the launchpad.yaml configuration file.
// Every field is optional; absent fields keep their built-in default.
type Launchfile struct {
	Version       string                 `yaml:"version"`
	Root          string                 `yaml:"root"`
	Environment   map[string]string      `yaml:"environment"`
	Tools         []ToolDTO              `yaml:"tools"`
	RequiredPaths []PathDTO              `yaml:"required_paths"`
	Dependencies  *DependenciesDTO       `yaml:"dependencies"`
	Targets       []TargetDTO            `yaml:"targets"`
	Artifacts     []string               `yaml:"artifacts"`
	ErrorLog      string                 `yaml:"error_log"`
	Profiles      map[string]*ProfileDTO `yaml:"profiles"`
}

// ToolDTO represents a required external tool.
type ToolDTO struct {
	Name        string   `yaml:"name"`
	VersionArgs []string `yaml:"version_args"`
	MinVersion  string   `yaml:"min_version"`
	Hint        string   `yaml:"hint"`
}

// PathDTO represents a project file or directory that must exist.
type PathDTO struct {
	Path string `yaml:"path"`
	Dir  bool   `yaml:"dir"`
}

// RetryDTO represents a retry policy.
type RetryDTO struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

// DependenciesDTO represents the dependency cache and its install command.
type DependenciesDTO struct {
	CacheDir string    `yaml:"cache_dir"`
	Install  []string  `yaml:"install"`
	Retry    *RetryDTO `yaml:"retry"`
}

// TargetDTO represents a build target definition.
type TargetDTO struct {
	Name        string    `yaml:"name"`
	Source      string    `yaml:"source"`
	Extensions  []string  `yaml:"extensions"`
	ExtraInputs []string  `yaml:"extra_inputs"`
	Artifact    string    `yaml:"artifact"`
	Cmd         []string  `yaml:"cmd"`
	Ignore      []string  `yaml:"ignore"`
	Retry       *RetryDTO `yaml:"retry"`
}

// ProfileDTO represents a launch profile. Pointer fields distinguish "unset" from
// an explicit zero value when merging over the defaults.
type ProfileDTO struct {
	Cmd            []string          `yaml:"cmd"`
	Environment    map[string]string `yaml:"environment"`
	StartupTimeout *time.Duration    `yaml:"startup_timeout"`
	GracePeriod    *time.Duration    `yaml:"grace_period"`
	ReadyKeywords  []string          `yaml:"ready_keywords"`
	ErrorKeywords  []string          `yaml:"error_keywords"`
	BenignKeywords []string          `yaml:"benign_keywords"`
	Build          *bool             `yaml:"build"`
	OnTimeout      string            `yaml:"on_timeout"`
	RequireReady   *bool             `yaml:"require_ready"`
}
