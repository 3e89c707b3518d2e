// Package cas implements the build record store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildRecordStore = (*Store)(nil)

// Store implements ports.BuildRecordStore using a file-per-target strategy.
type Store struct{}

// NewStore creates a new BuildRecordStore.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the build record for a given target.
func (s *Store) Get(root, target string) (*domain.BuildRecord, error) {
	filename := s.filename(root, target)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "target", target)
	}

	var record domain.BuildRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "target", target)
	}

	return &record, nil
}

// Put stores the build record, replacing any earlier record of the same target.
func (s *Store) Put(root string, record domain.BuildRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	filename := s.filename(root, record.Target)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	if err := os.WriteFile(filename, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "target", record.Target)
	}

	return nil
}

func (s *Store) filename(root, target string) string {
	name := strconv.FormatUint(xxhash.Sum64String(target), 16)
	return filepath.Join(root, domain.DefaultStorePath(), name+".json")
}
