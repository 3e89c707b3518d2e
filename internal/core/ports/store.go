package ports

import "go.trai.ch/launchpad/internal/core/domain"

// BuildRecordStore defines the interface for storing and retrieving build records.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildRecordStore interface {
	// Get retrieves the last build record for a given target of the project at root.
	// Returns nil, nil if not found.
	Get(root, target string) (*domain.BuildRecord, error)

	// Put stores the build record below root.
	Put(root string, record domain.BuildRecord) error
}
