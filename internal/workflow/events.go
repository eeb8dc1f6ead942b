package workflow

import (
	"context"
	"time"
)

// Progress event statuses
const (
	EventPhaseStarted   = "started"
	EventPhaseCompleted = "completed"
	EventPhaseSkipped   = "skipped"
	EventPhaseFailed    = "failed"
	EventRunFinished    = "run_finished"
)

// ProgressEvent notifies external observers about run progress. PhaseID
// is zero for run-level events.
type ProgressEvent struct {
	RunID     string    `json:"run_id"`
	Symbol    string    `json:"symbol"`
	PhaseID   int       `json:"phase_id,omitempty"`
	Status    string    `json:"status"`
	RunStatus string    `json:"run_status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressSink receives progress events. Delivery semantics are the
// sink's concern; the orchestrator only logs emit failures and moves on.
type ProgressSink interface {
	Emit(ctx context.Context, event ProgressEvent) error
}

// RunStore archives terminal runs for later inspection
type RunStore interface {
	SaveRun(ctx context.Context, run *AnalysisRun) error
}
