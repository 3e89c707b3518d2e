// Package verifier checks that the host has the toolchain and project files a launch needs.
package verifier

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/launchpad/internal/core/ports"
	"golang.org/x/mod/semver"
)

// Verifier runs environment checks against one project root.
// Checks never stop early: every requirement produces its own result.
type Verifier struct {
	runner ports.CommandRunner
	root   string
	env    map[string]string
}

// New creates a Verifier for the project at root.
func New(runner ports.CommandRunner, root string) *Verifier {
	return &Verifier{runner: runner, root: root}
}

// WithEnv overlays env on the environment of every version invocation.
func (v *Verifier) WithEnv(env map[string]string) *Verifier {
	v.env = env
	return v
}

// RunChecks checks every tool and then every required path.
func (v *Verifier) RunChecks(ctx context.Context, tools []domain.ToolRequirement, paths []domain.RequiredPath) domain.CheckReport {
	var report domain.CheckReport
	for _, tool := range tools {
		report.Add(v.checkTool(ctx, tool))
	}
	for _, p := range paths {
		report.Add(v.checkPath(p))
	}
	return report
}

// Diagnose runs the full report: tools, required paths and the dependency cache.
func (v *Verifier) Diagnose(ctx context.Context, project *domain.Project) domain.CheckReport {
	report := v.RunChecks(ctx, project.Tools, project.RequiredPaths)
	if project.Dependencies.CacheDir != "" {
		report.Add(checkDependencies(project.Dependencies))
	}
	return report
}

func (v *Verifier) checkTool(ctx context.Context, tool domain.ToolRequirement) domain.CheckResult {
	result := domain.CheckResult{Label: tool.Name}

	path, err := v.runner.LookPath(tool.Name)
	if err != nil {
		result.Detail = withHint("not found on PATH", tool.Hint)
		return result
	}

	args := tool.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}
	cmd := domain.Command{
		Argv: append([]string{path}, args...),
		Dir:  v.root,
	}.WithEnv(v.env)

	res, err := v.runner.Capture(ctx, cmd)
	if err != nil {
		result.Detail = withHint(fmt.Sprintf("cannot run %s: %v", tool.Name, err), tool.Hint)
		return result
	}
	if res.ExitCode != 0 {
		result.Detail = withHint(fmt.Sprintf("%s exited with code %d", cmd, res.ExitCode), tool.Hint)
		return result
	}

	version := ParseVersion(tool.Name, res.Stdout)
	if version == "" {
		version = ParseVersion(tool.Name, res.Stderr)
	}

	if tool.MinVersion != "" {
		if ok, detail := meetsMinimum(version, tool.MinVersion); !ok {
			result.Detail = withHint(detail, tool.Hint)
			return result
		}
	}

	result.Passed = true
	result.Detail = version
	if result.Detail == "" {
		result.Detail = "installed"
	}
	return result
}

func (v *Verifier) checkPath(p domain.RequiredPath) domain.CheckResult {
	result := domain.CheckResult{Label: p.Path}

	full := p.Path
	if !filepath.IsAbs(full) {
		full = filepath.Join(v.root, full)
	}

	info, err := os.Stat(full)
	switch {
	case err != nil:
		result.Detail = "missing"
	case p.Dir && !info.IsDir():
		result.Detail = "not a directory"
	case !p.Dir && !info.Mode().IsRegular():
		result.Detail = "not a regular file"
	default:
		result.Passed = true
		result.Detail = "found"
	}
	return result
}

func checkDependencies(deps domain.Dependencies) domain.CheckResult {
	result := domain.CheckResult{Label: "dependencies"}
	info, err := os.Stat(deps.CacheDir)
	if err != nil || !info.IsDir() {
		result.Detail = fmt.Sprintf("not installed, run %q", deps.Install.String())
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("installed (%s exists)", filepath.Base(deps.CacheDir))
	return result
}

// ParseVersion returns the first non-empty line of output with the tool name removed.
func ParseVersion(name string, output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.ReplaceAll(line, name, ""))
	}
	return ""
}

// meetsMinimum compares version against minimum semver-style.
// Versions may omit the leading v and carry trailing text ("20.11.0 (LTS)").
func meetsMinimum(version, minimum string) (bool, string) {
	have := canonical(version)
	want := canonical(minimum)
	if want == "" {
		return false, fmt.Sprintf("invalid minimum version %q", minimum)
	}
	if have == "" {
		return false, fmt.Sprintf("cannot determine version from %q, need %s or newer", version, minimum)
	}
	if semver.Compare(have, want) < 0 {
		return false, fmt.Sprintf("version %s is older than the required %s", version, minimum)
	}
	return true, ""
}

func canonical(version string) string {
	for _, field := range strings.Fields(version) {
		v := strings.TrimSuffix(field, ",")
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			return semver.Canonical(v)
		}
	}
	return ""
}

func withHint(detail, hint string) string {
	if hint == "" {
		return detail
	}
	return detail + "; " + hint
}
