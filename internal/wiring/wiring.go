// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/launchpad/internal/adapters/cas"
	_ "go.trai.ch/launchpad/internal/adapters/config"
	_ "go.trai.ch/launchpad/internal/adapters/fs"
	_ "go.trai.ch/launchpad/internal/adapters/logger"
	_ "go.trai.ch/launchpad/internal/adapters/prompt"
	_ "go.trai.ch/launchpad/internal/adapters/shell"
	_ "go.trai.ch/launchpad/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/launchpad/internal/app"
)
