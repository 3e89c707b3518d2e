package config

import (
	"time"

	"go.trai.ch/launchpad/internal/core/domain"
)

const (
	defaultInstallAttempts = 3
	defaultInstallBackoff  = 2 * time.Second
	defaultGracePeriod     = 5 * time.Second
	productionTimeout      = 30 * time.Second
	developmentTimeout     = 60 * time.Second
)

var defaultIgnores = []string{"node_modules", "dist", "__pycache__"}

// Defaults returns the built-in configuration of an Electron project laid out as
// src/main + src/renderer with npm scripts build:main, build:renderer and dev.
func Defaults() *Launchfile {
	return &Launchfile{
		Tools: []ToolDTO{
			{Name: "node", Hint: "download and install Node.js from https://nodejs.org"},
			{Name: "npm", Hint: "npm ships with Node.js, reinstall it from https://nodejs.org"},
		},
		RequiredPaths: []PathDTO{
			{Path: "package.json"},
			{Path: "tsconfig.json"},
			{Path: "webpack.renderer.config.js"},
			{Path: "src", Dir: true},
		},
		Dependencies: &DependenciesDTO{
			CacheDir: "node_modules",
			Install:  []string{"npm", "install"},
			Retry:    &RetryDTO{Attempts: defaultInstallAttempts, Backoff: defaultInstallBackoff},
		},
		Targets: []TargetDTO{
			{
				Name:       "main",
				Source:     "src/main",
				Extensions: []string{".ts", ".js"},
				Artifact:   "dist/main/main.js",
				Cmd:        []string{"npm", "run", "build:main"},
				Ignore:     defaultIgnores,
			},
			{
				Name:        "renderer",
				Source:      "src/renderer",
				Extensions:  []string{".ts", ".tsx", ".js", ".jsx", ".css"},
				ExtraInputs: []string{"webpack.renderer.config.js"},
				Artifact:    "dist/renderer.js",
				Cmd:         []string{"npm", "run", "build:renderer"},
				Ignore:      defaultIgnores,
			},
		},
		Artifacts: []string{"dist/main/main.js", "dist/renderer.js", "dist/index.html"},
		ErrorLog:  domain.BuildErrorLogName,
		Profiles: map[string]*ProfileDTO{
			string(domain.ModeProduction): {
				Cmd:            []string{"npx", "electron", "dist/main/main.js"},
				Environment:    map[string]string{"NODE_ENV": "production"},
				StartupTimeout: ptr(productionTimeout),
				GracePeriod:    ptr(defaultGracePeriod),
				ReadyKeywords:  []string{"ready", "initialized", "database", "window created"},
				ErrorKeywords:  []string{"error", "failed", "cannot"},
				BenignKeywords: []string{"gpu"},
				Build:          ptr(true),
				OnTimeout:      string(domain.TimeoutAbort),
				RequireReady:   ptr(false),
			},
			string(domain.ModeDevelopment): {
				Cmd:            []string{"npm", "run", "dev"},
				StartupTimeout: ptr(developmentTimeout),
				GracePeriod:    ptr(defaultGracePeriod),
				ReadyKeywords:  []string{"compiled successfully", "webpack compiled", "ready"},
				ErrorKeywords:  []string{"error", "failed", "cannot"},
				Build:          ptr(false),
				OnTimeout:      string(domain.TimeoutAbort),
				RequireReady:   ptr(true),
			},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
