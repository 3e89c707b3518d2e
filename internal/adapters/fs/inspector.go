package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
)

var _ ports.StalenessInspector = (*Inspector)(nil)

// Inspector decides staleness by comparing modification times.
type Inspector struct {
	walker   *Walker
	resolver ports.InputResolver
}

// NewInspector creates a new Inspector.
func NewInspector(walker *Walker, resolver ports.InputResolver) *Inspector {
	return &Inspector{walker: walker, resolver: resolver}
}

// LatestModTime returns the newest modification time among files below root whose
// name ends with one of extensions. ok is false when no file matched.
func (i *Inspector) LatestModTime(root string, extensions, ignoreDirs []string) (latest time.Time, newest string, ok bool) {
	for path := range i.walker.WalkFiles(root, ignoreDirs) {
		if !domain.HasExtension(path, extensions) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !ok || info.ModTime().After(latest) {
			latest, newest, ok = info.ModTime(), path, true
		}
	}
	return latest, newest, ok
}

// Inspect reports the target stale when its artifact is absent, empty, or older
// than the newest watched source. Equal times count as fresh.
func (i *Inspector) Inspect(target domain.BuildTarget) domain.StalenessVerdict {
	verdict := domain.StalenessVerdict{Target: target.Name}

	latest, newest, found := i.LatestModTime(target.SourceDir, target.Extensions, target.IgnoreDirs)
	if t, path, ok := i.latestExtraInput(target.ExtraInputs); ok && (!found || t.After(latest)) {
		latest, newest, found = t, path, true
	}
	verdict.Newest = newest

	info, err := os.Stat(target.Artifact)
	switch {
	case err != nil:
		verdict.Stale = true
		verdict.Reason = "artifact " + filepath.Base(target.Artifact) + " not found"
		return verdict
	case !info.Mode().IsRegular() || info.Size() == 0:
		verdict.Stale = true
		verdict.Reason = "artifact " + filepath.Base(target.Artifact) + " is empty"
		return verdict
	}

	if !found {
		verdict.Reason = "no watched sources"
		return verdict
	}

	if latest.After(info.ModTime()) {
		verdict.Stale = true
		verdict.Reason = fmt.Sprintf("%s changed after the last build", newest)
		return verdict
	}

	verdict.Reason = "up to date"
	return verdict
}

func (i *Inspector) latestExtraInput(inputs []string) (latest time.Time, newest string, ok bool) {
	if len(inputs) == 0 {
		return latest, newest, false
	}

	paths, err := i.resolver.ResolveInputs(inputs, "")
	if err != nil {
		return latest, newest, false
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !ok || info.ModTime().After(latest) {
			latest, newest, ok = info.ModTime(), path, true
		}
	}
	return latest, newest, ok
}
