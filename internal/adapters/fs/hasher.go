package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher fingerprints the content of a build target's sources.
type Hasher struct {
	walker   *Walker
	resolver ports.InputResolver
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker, resolver ports.InputResolver) *Hasher {
	return &Hasher{walker: walker, resolver: resolver}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint hashes the build command followed by every watched source, in path
// order, keyed by its path relative to the source tree. Moving the project
// directory therefore leaves the fingerprint unchanged.
func (h *Hasher) Fingerprint(target domain.BuildTarget) (string, error) {
	hasher := xxhash.New()

	for _, arg := range target.Command.Argv {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	var sources []string
	for path := range h.walker.WalkFiles(target.SourceDir, target.IgnoreDirs) {
		if domain.HasExtension(path, target.Extensions) {
			sources = append(sources, path)
		}
	}
	slices.Sort(sources)

	extras, err := h.resolver.ResolveInputs(target.ExtraInputs, "")
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "target", target.Name)
	}

	for _, path := range sources {
		if err := h.hashFile(target.SourceDir, path, hasher); err != nil {
			return "", zerr.With(err, "target", target.Name)
		}
	}
	_, _ = hasher.Write([]byte{0})

	for _, path := range extras {
		if err := h.hashFile(filepath.Dir(path), path, hasher); err != nil {
			return "", zerr.With(err, "target", target.Name)
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashFile(base, path string, mainHasher io.Writer) error {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = path
	}
	_, _ = mainHasher.Write([]byte(filepath.ToSlash(rel)))
	_, _ = mainHasher.Write([]byte{0})

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
