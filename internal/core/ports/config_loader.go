package ports

import "go.trai.ch/launchpad/internal/core/domain"

// ConfigLoader defines the interface for loading the launcher configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers the project starting at cwd and returns its resolved configuration.
	// Without a config file the built-in defaults apply, rooted at cwd.
	Load(cwd string) (*domain.Project, error)

	// LoadFile reads the configuration from an explicit file.
	LoadFile(path string) (*domain.Project, error)
}
