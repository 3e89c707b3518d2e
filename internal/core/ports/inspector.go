package ports

import "go.trai.ch/launchpad/internal/core/domain"

// StalenessInspector decides whether a build target must be rebuilt.
//
//go:generate mockgen -destination=mocks/inspector_mock.go -package=mocks -source=inspector.go
type StalenessInspector interface {
	// Inspect compares the target's newest watched source against its artifact.
	// It never fails: unreadable files and directories are skipped.
	Inspect(target domain.BuildTarget) domain.StalenessVerdict
}
