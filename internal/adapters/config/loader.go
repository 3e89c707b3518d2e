// Package config provides the configuration loader for launchpad.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file layered over built-in defaults.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load discovers launchpad.yaml by walking up from cwd. Without a config file the
// built-in defaults apply, rooted at cwd.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", cwd)
	}

	configPath, found := findConfiguration(abs)
	if !found {
		return l.build(Defaults(), abs)
	}
	return l.LoadFile(configPath)
}

// LoadFile reads the configuration from an explicit file.
func (l *Loader) LoadFile(path string) (*domain.Project, error) {
	var launchfile Launchfile
	if err := readAndUnmarshalYAML(path, &launchfile); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	merged := merge(Defaults(), &launchfile)
	return l.build(merged, resolveRoot(abs, launchfile.Root))
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", false
		}
		currentDir = parentDir
	}
}

// merge layers override on top of base. Lists replace, maps merge key by key and
// profiles merge field by field.
func merge(base, override *Launchfile) *Launchfile {
	out := *base

	if override.Version != "" {
		out.Version = override.Version
	}
	if override.Root != "" {
		out.Root = override.Root
	}
	out.Environment = mergeMaps(base.Environment, override.Environment)
	if override.Tools != nil {
		out.Tools = override.Tools
	}
	if override.RequiredPaths != nil {
		out.RequiredPaths = override.RequiredPaths
	}
	if override.Targets != nil {
		out.Targets = override.Targets
	}
	if override.Artifacts != nil {
		out.Artifacts = override.Artifacts
	}
	if override.ErrorLog != "" {
		out.ErrorLog = override.ErrorLog
	}

	if override.Dependencies != nil {
		deps := DependenciesDTO{}
		if base.Dependencies != nil {
			deps = *base.Dependencies
		}
		if override.Dependencies.CacheDir != "" {
			deps.CacheDir = override.Dependencies.CacheDir
		}
		if override.Dependencies.Install != nil {
			deps.Install = override.Dependencies.Install
		}
		if override.Dependencies.Retry != nil {
			deps.Retry = override.Dependencies.Retry
		}
		out.Dependencies = &deps
	}

	out.Profiles = make(map[string]*ProfileDTO, len(base.Profiles)+len(override.Profiles))
	maps.Copy(out.Profiles, base.Profiles)
	for name, profile := range override.Profiles {
		if profile == nil {
			continue
		}
		if existing, ok := out.Profiles[name]; ok {
			out.Profiles[name] = mergeProfile(existing, profile)
			continue
		}
		out.Profiles[name] = profile
	}

	return &out
}

func mergeProfile(base, override *ProfileDTO) *ProfileDTO {
	out := *base
	if override.Cmd != nil {
		out.Cmd = override.Cmd
	}
	out.Environment = mergeMaps(base.Environment, override.Environment)
	if override.StartupTimeout != nil {
		out.StartupTimeout = override.StartupTimeout
	}
	if override.GracePeriod != nil {
		out.GracePeriod = override.GracePeriod
	}
	if override.ReadyKeywords != nil {
		out.ReadyKeywords = override.ReadyKeywords
	}
	if override.ErrorKeywords != nil {
		out.ErrorKeywords = override.ErrorKeywords
	}
	if override.BenignKeywords != nil {
		out.BenignKeywords = override.BenignKeywords
	}
	if override.Build != nil {
		out.Build = override.Build
	}
	if override.OnTimeout != "" {
		out.OnTimeout = override.OnTimeout
	}
	if override.RequireReady != nil {
		out.RequireReady = override.RequireReady
	}
	return &out
}

func mergeMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	result := make(map[string]string, len(base)+len(override))
	maps.Copy(result, base)
	maps.Copy(result, override)
	return result
}

// build validates the merged configuration and resolves every path against root.
func (l *Loader) build(lf *Launchfile, root string) (*domain.Project, error) {
	project := &domain.Project{
		Root:        root,
		Artifacts:   lf.Artifacts,
		ErrorLog:    resolvePath(root, lf.ErrorLog),
		Environment: lf.Environment,
		Profiles:    make(map[string]domain.LaunchProfile, len(lf.Profiles)),
	}
	if lf.ErrorLog == "" {
		project.ErrorLog = domain.DefaultBuildErrorLogPath(root)
	}

	for _, tool := range lf.Tools {
		if tool.Name == "" {
			return nil, zerr.Wrap(domain.ErrInvalidConfig, "tool has no name")
		}
		project.Tools = append(project.Tools, domain.ToolRequirement{
			Name:        tool.Name,
			VersionArgs: tool.VersionArgs,
			MinVersion:  tool.MinVersion,
			Hint:        tool.Hint,
		})
	}

	for _, p := range lf.RequiredPaths {
		if p.Path == "" {
			return nil, zerr.Wrap(domain.ErrInvalidConfig, "required path is empty")
		}
		project.RequiredPaths = append(project.RequiredPaths, domain.RequiredPath{Path: p.Path, Dir: p.Dir})
	}

	var implicitIgnores []string
	if lf.Dependencies != nil {
		deps, err := l.buildDependencies(lf.Dependencies, root, lf.Environment)
		if err != nil {
			return nil, err
		}
		project.Dependencies = deps
		if deps.CacheDir != "" {
			implicitIgnores = append(implicitIgnores, deps.CacheDir)
		}
	}
	for _, artifact := range lf.Artifacts {
		implicitIgnores = append(implicitIgnores, outputDir(root, artifact))
	}

	seen := make(map[string]bool, len(lf.Targets))
	for i := range lf.Targets {
		dto := &lf.Targets[i]
		target, err := buildTarget(dto, root, lf.Environment, implicitIgnores)
		if err != nil {
			return nil, err
		}
		if seen[target.Name] {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "duplicate target name"), "target", target.Name)
		}
		seen[target.Name] = true
		implicitIgnores = append(implicitIgnores, outputDir(root, dto.Artifact))
		project.Targets = append(project.Targets, target)
	}
	// Artifact directories of later targets must also be hidden from earlier ones.
	for i := range project.Targets {
		project.Targets[i].IgnoreDirs = canonicalizeStrings(append(project.Targets[i].IgnoreDirs, implicitIgnores...))
	}

	for _, name := range slices.Sorted(maps.Keys(lf.Profiles)) {
		profile, err := l.buildProfile(name, lf.Profiles[name], root, lf.Environment)
		if err != nil {
			return nil, err
		}
		project.Profiles[name] = profile
	}

	return project, nil
}

func (l *Loader) buildDependencies(dto *DependenciesDTO, root string, env map[string]string) (domain.Dependencies, error) {
	deps := domain.Dependencies{Retry: buildRetry(dto.Retry)}
	if dto.CacheDir != "" {
		deps.CacheDir = resolvePath(root, dto.CacheDir)
	}
	if len(dto.Install) > 0 {
		deps.Install = domain.Command{Argv: dto.Install, Dir: root}.WithEnv(env)
	}
	if deps.CacheDir != "" && deps.Install.IsEmpty() {
		return deps, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "dependency cache has no install command"),
			"cache_dir", dto.CacheDir)
	}
	if dto.Retry != nil && dto.Retry.Attempts < 0 {
		return deps, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "retry attempts must not be negative"),
			"attempts", dto.Retry.Attempts)
	}
	return deps, nil
}

func buildTarget(dto *TargetDTO, root string, env map[string]string, ignores []string) (domain.BuildTarget, error) {
	switch {
	case dto.Name == "":
		return domain.BuildTarget{}, zerr.Wrap(domain.ErrInvalidConfig, "target has no name")
	case dto.Source == "":
		return domain.BuildTarget{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "target has no source directory"),
			"target", dto.Name)
	case dto.Artifact == "":
		return domain.BuildTarget{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "target has no artifact"),
			"target", dto.Name)
	case len(dto.Cmd) == 0:
		return domain.BuildTarget{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "target has no build command"),
			"target", dto.Name)
	case len(dto.Extensions) == 0:
		return domain.BuildTarget{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "target watches no extensions"),
			"target", dto.Name)
	}

	extras := make([]string, 0, len(dto.ExtraInputs))
	for _, input := range dto.ExtraInputs {
		extras = append(extras, resolvePath(root, input))
	}

	return domain.BuildTarget{
		Name:        dto.Name,
		SourceDir:   resolvePath(root, dto.Source),
		Extensions:  dto.Extensions,
		ExtraInputs: extras,
		Artifact:    resolvePath(root, dto.Artifact),
		Command:     domain.Command{Argv: dto.Cmd, Dir: root}.WithEnv(env),
		IgnoreDirs:  append(slices.Clone(dto.Ignore), ignores...),
		Retry:       buildRetry(dto.Retry),
	}, nil
}

func (l *Loader) buildProfile(
	name string,
	dto *ProfileDTO,
	root string,
	env map[string]string,
) (domain.LaunchProfile, error) {
	if dto == nil || len(dto.Cmd) == 0 {
		return domain.LaunchProfile{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "profile has no command"),
			"profile", name)
	}

	policy := domain.TimeoutPolicy(strings.ToLower(dto.OnTimeout))
	switch policy {
	case "":
		policy = domain.TimeoutAbort
	case domain.TimeoutAbort, domain.TimeoutWait:
	default:
		err := zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unknown timeout policy"), "profile", name)
		return domain.LaunchProfile{}, zerr.With(err, "on_timeout", dto.OnTimeout)
	}

	profile := domain.LaunchProfile{
		Name:           name,
		Command:        domain.Command{Argv: dto.Cmd, Dir: root}.WithEnv(env).WithEnv(dto.Environment),
		ReadyKeywords:  dto.ReadyKeywords,
		ErrorKeywords:  dto.ErrorKeywords,
		BenignKeywords: dto.BenignKeywords,
		OnTimeout:      policy,
	}
	if dto.StartupTimeout != nil {
		profile.StartupTimeout = *dto.StartupTimeout
	}
	if dto.GracePeriod != nil {
		profile.GracePeriod = *dto.GracePeriod
	}
	if dto.Build != nil {
		profile.Build = *dto.Build
	}
	if dto.RequireReady != nil {
		profile.RequireReady = *dto.RequireReady
	}

	if profile.StartupTimeout <= 0 {
		return domain.LaunchProfile{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "startup timeout must be positive"),
			"profile", name)
	}
	if profile.GracePeriod <= 0 {
		profile.GracePeriod = defaultGracePeriod
	}

	if len(profile.ReadyKeywords) == 0 && l.Logger != nil {
		l.Logger.Warn(fmt.Sprintf("profile %s has no ready keywords, its startup can only time out", name))
	}

	return profile, nil
}

func buildRetry(dto *RetryDTO) domain.RetryPolicy {
	if dto == nil {
		return domain.SingleAttempt
	}
	return domain.RetryPolicy{MaxAttempts: dto.Attempts, Backoff: dto.Backoff}
}

// outputDir returns the absolute directory holding artifact, or "" when that is
// the project root itself. Only this exact directory is hidden from source walks,
// so a source folder sharing its name elsewhere is still scanned.
func outputDir(root, artifact string) string {
	if artifact == "" {
		return ""
	}
	dir := filepath.Dir(resolvePath(root, artifact))
	if dir == filepath.Clean(root) {
		return ""
	}
	return dir
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return slices.DeleteFunc(slices.Compact(sorted), func(s string) bool {
		return s == "" || s == "."
	})
}

func resolvePath(root, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(root, path))
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	return resolvePath(configDir, configuredRoot)
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
