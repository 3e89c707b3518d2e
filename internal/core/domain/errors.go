package domain

import "go.trai.ch/zerr"

var (
	// ErrEnvironmentUnmet is returned when a required tool or project file is missing.
	ErrEnvironmentUnmet = zerr.New("environment requirements not met")

	// ErrInstallFailed is returned when the dependency install exhausted its attempts.
	ErrInstallFailed = zerr.New("dependency installation failed")

	// ErrBuildFailed is returned when a build command exits non-zero.
	ErrBuildFailed = zerr.New("build failed")

	// ErrArtifactMissing is returned when a build succeeded but its artifact is absent or empty.
	ErrArtifactMissing = zerr.New("build artifact missing")

	// ErrSupervisionTimedOut is returned when the application did not report readiness in time.
	ErrSupervisionTimedOut = zerr.New("application startup timed out")

	// ErrProcessCrashed is returned when the supervised application exits with a non-zero code.
	ErrProcessCrashed = zerr.New("application exited unexpectedly")

	// ErrSpawnFailed is returned when a child process cannot be started.
	ErrSpawnFailed = zerr.New("failed to start process")

	// ErrCancelled is returned when the operator interrupts the run.
	ErrCancelled = zerr.New("cancelled by user")

	// ErrNoProcess is returned when an operation needs a live supervised process and there is none.
	ErrNoProcess = zerr.New("no supervised process")

	// ErrProcessAlreadyRunning is returned when launching while a supervised process is still live.
	ErrProcessAlreadyRunning = zerr.New("a supervised process is already running")

	// ErrEmptyCommand is returned when a command has no program to run.
	ErrEmptyCommand = zerr.New("empty command")

	// ErrUnknownProfile is returned when no launch profile exists for the requested mode.
	ErrUnknownProfile = zerr.New("unknown launch profile")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the config file contains invalid values.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrLogWriteFailed is returned when the build error log cannot be written.
	ErrLogWriteFailed = zerr.New("failed to write build error log")

	// ErrStoreCreateFailed is returned when the build record store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build record store directory")

	// ErrStoreReadFailed is returned when a build record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build record")

	// ErrStoreUnmarshalFailed is returned when a build record cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build record")

	// ErrStoreMarshalFailed is returned when a build record cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build record")

	// ErrStoreWriteFailed is returned when a build record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build record")

	// ErrFingerprintFailed is returned when the source fingerprint of a target cannot be computed.
	ErrFingerprintFailed = zerr.New("failed to fingerprint sources")
)
