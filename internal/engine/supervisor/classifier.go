package supervisor

import (
	"strings"

	"go.trai.ch/launchpad/internal/core/domain"
)

// Rule assigns Class to a line containing one of Keywords and, when Also is
// set, one of Also as well. Matching is case-insensitive.
type Rule struct {
	Class    domain.LineClass
	Keywords []string
	Also     []string
}

func (r Rule) matches(lower string) bool {
	return containsAny(lower, r.Keywords) && (len(r.Also) == 0 || containsAny(lower, r.Also))
}

// Classifier labels child output lines. The first matching rule wins;
// a line no rule matches is noise.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a Classifier from an ordered rule list.
func NewClassifier(rules ...Rule) *Classifier {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		normalized = append(normalized, Rule{
			Class:    r.Class,
			Keywords: lowerAll(r.Keywords),
			Also:     lowerAll(r.Also),
		})
	}
	return &Classifier{rules: normalized}
}

// ClassifierFor builds the rule list of a launch profile: readiness first, then
// error lines on the benign allow-list, then the remaining error lines.
func ClassifierFor(profile domain.LaunchProfile) *Classifier {
	rules := []Rule{{Class: domain.LineReady, Keywords: profile.ReadyKeywords}}
	if len(profile.BenignKeywords) > 0 {
		rules = append(rules, Rule{Class: domain.LineSuppressed, Keywords: profile.ErrorKeywords, Also: profile.BenignKeywords})
	}
	rules = append(rules, Rule{Class: domain.LineError, Keywords: profile.ErrorKeywords})
	return NewClassifier(rules...)
}

// Classify returns the class of the first rule matching line.
func (c *Classifier) Classify(line string) domain.LineClass {
	lower := strings.ToLower(line)
	for _, r := range c.rules {
		if r.matches(lower) {
			return r.Class
		}
	}
	return domain.LineNoise
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
