package domain

import (
	"path/filepath"
	"strings"
)

// BuildTarget is one independently buildable unit of the application.
type BuildTarget struct {
	Name string
	// SourceDir is the tree whose newest watched file decides staleness.
	SourceDir string
	// Extensions are file name suffixes (".ts", ".tsx") that count as sources.
	Extensions []string
	// ExtraInputs are single files outside SourceDir that also count as sources.
	ExtraInputs []string
	// Artifact is the build output whose mtime is compared against the sources.
	Artifact string
	// Command produces Artifact.
	Command Command
	// IgnoreDirs are never descended into. A relative entry is a name pattern
	// matched at any depth; an absolute entry excludes exactly that directory.
	IgnoreDirs []string
	// Retry bounds build attempts. The zero value means a single attempt.
	Retry RetryPolicy
}

// Owns reports whether path lives inside the target's source tree and is a watched
// file, or is one of its extra inputs.
func (t BuildTarget) Owns(path string) bool {
	clean := filepath.Clean(path)
	for _, extra := range t.ExtraInputs {
		if filepath.Clean(extra) == clean {
			return true
		}
	}

	rel, err := filepath.Rel(t.SourceDir, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	dir := filepath.Clean(t.SourceDir)
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part == "." {
			continue
		}
		dir = filepath.Join(dir, part)
		if IgnoresDir(t.IgnoreDirs, dir) {
			return false
		}
	}

	return HasExtension(clean, t.Extensions)
}

// IgnoresDir reports whether dir is excluded by ignores. Relative entries are
// glob patterns against the directory name, absolute entries must equal dir.
func IgnoresDir(ignores []string, dir string) bool {
	name := filepath.Base(dir)
	for _, ignore := range ignores {
		if filepath.IsAbs(ignore) {
			if filepath.Clean(ignore) == filepath.Clean(dir) {
				return true
			}
			continue
		}
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}

// HasExtension reports whether name ends with any of the given suffixes.
func HasExtension(name string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// StalenessVerdict is the per-run decision whether a target must be rebuilt.
type StalenessVerdict struct {
	Target string
	Stale  bool
	Reason string
	// Newest is the newest watched source file, if any was found.
	Newest string
}

// BuildFailure describes the target that stopped a build run.
type BuildFailure struct {
	Target   string
	LogPath  string
	ExitCode int
	Err      error
}

// BuildReport summarises one Build Coordinator run.
type BuildReport struct {
	Attempted []string
	Skipped   []string
	Rebuilt   []string
	Failure   *BuildFailure
}

// OK reports whether every target was either skipped or rebuilt.
func (r BuildReport) OK() bool {
	return r.Failure == nil
}
