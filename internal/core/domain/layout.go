package domain

import "path/filepath"

const (
	// LaunchpadDirName is the name of the internal state directory.
	LaunchpadDirName = ".launchpad"

	// StoreDirName is the name of the build record store directory.
	StoreDirName = "store"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "launchpad.yaml"

	// BuildErrorLogName is the name of the build failure log written to the project root.
	BuildErrorLogName = "build_error.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the default path for the build record store.
// It joins .launchpad and store.
func DefaultStorePath() string {
	return filepath.Join(LaunchpadDirName, StoreDirName)
}

// DefaultBuildErrorLogPath returns the build failure log path for the given project root.
func DefaultBuildErrorLogPath(root string) string {
	return filepath.Join(root, BuildErrorLogName)
}
