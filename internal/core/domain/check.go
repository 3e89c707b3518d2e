package domain

// ToolRequirement names an external tool the launcher depends on.
type ToolRequirement struct {
	// Name is the executable looked up on PATH.
	Name string
	// VersionArgs are passed to the tool to print its version. Defaults to --version.
	VersionArgs []string
	// MinVersion is an optional lower bound, compared semver-style.
	MinVersion string
	// Hint tells the operator how to obtain the tool.
	Hint string
}

// RequiredPath is a file or directory that must exist relative to the project root.
type RequiredPath struct {
	Path string
	Dir  bool
}

// CheckResult is the outcome of a single environment check.
type CheckResult struct {
	Label  string
	Passed bool
	Detail string
}

// CheckReport collects check results in the order they ran.
type CheckReport struct {
	Passed int
	Failed int
	Items  []CheckResult
}

// Add appends a result and updates the counters.
func (r *CheckReport) Add(result CheckResult) {
	r.Items = append(r.Items, result)
	if result.Passed {
		r.Passed++
	} else {
		r.Failed++
	}
}

// OK reports whether every check passed.
func (r CheckReport) OK() bool {
	return r.Failed == 0
}

// Failures returns only the failed results.
func (r CheckReport) Failures() []CheckResult {
	var out []CheckResult
	for _, item := range r.Items {
		if !item.Passed {
			out = append(out, item)
		}
	}
	return out
}
