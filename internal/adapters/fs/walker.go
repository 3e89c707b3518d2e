// Package fs provides file system adapters for walking, inspecting and hashing files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/launchpad/internal/core/domain"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file below root, skipping VCS metadata and any
// directory excluded by ignores (see domain.IgnoresDir). Yielded paths include root.
// Entries that cannot be read are skipped; the walk itself never fails.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil //nolint:nilerr // unreadable entries are skipped, not fatal
			}

			if d.IsDir() {
				if path != root && w.shouldSkipDir(path, ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

// shouldSkipDir reports whether the directory at path must not be descended into.
func (w *Walker) shouldSkipDir(path string, ignores []string) bool {
	if name := filepath.Base(path); name == ".git" || name == ".jj" {
		return true
	}
	return domain.IgnoresDir(ignores, path)
}
