package domain

import "time"

// BuildRecord is persisted after every successful rebuild of a target.
type BuildRecord struct {
	Target      string        `json:"target,omitzero"`
	Fingerprint string        `json:"fingerprint,omitzero"`
	Command     string        `json:"command,omitzero"`
	BuiltAt     time.Time     `json:"built_at,omitzero"`
	Duration    time.Duration `json:"duration,omitzero"`
}
