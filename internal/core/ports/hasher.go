package ports

import "go.trai.ch/launchpad/internal/core/domain"

// Hasher defines the interface for fingerprinting the sources of a build target.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// Fingerprint computes a content hash over the target's build command and watched sources.
	Fingerprint(target domain.BuildTarget) (string, error)
}
