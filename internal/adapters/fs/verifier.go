package fs

import (
	"os"
	"path/filepath"

	"go.trai.ch/launchpad/internal/core/ports"
)

var _ ports.ArtifactVerifier = (*Verifier)(nil)

// Verifier checks that build outputs exist and carry content.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// MissingArtifacts returns, in order, every artifact that is absent, not a regular
// file, or empty. Relative artifacts are resolved against root.
func (v *Verifier) MissingArtifacts(root string, artifacts []string) []string {
	var missing []string
	for _, artifact := range artifacts {
		path := artifact
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, artifact)
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
			missing = append(missing, artifact)
		}
	}
	return missing
}
