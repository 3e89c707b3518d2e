package ports

import "time"

// Renderer is the abstraction for console output of traced work.
// It decouples telemetry collection from presentation.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// OnPlanEmit is called before build targets are inspected.
	OnPlanEmit(targets []string)

	// OnTaskStart is called when a unit of work begins.
	// spanID: unique identifier for this unit
	// parentID: spanID of the parent unit (empty if root)
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a unit of work emits output.
	// data may contain partial lines.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a unit of work finishes. err is nil on success.
	OnTaskComplete(spanID string, endTime time.Time, err error)

	// Stop flushes any buffered output.
	Stop() error
}
