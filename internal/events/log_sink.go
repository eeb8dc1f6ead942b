package events

import (
	"context"

	"minerva/internal/workflow"
	"minerva/pkg/logger"
)

// LogSink records progress in the application log. Used when Kafka is
// disabled so the orchestrator always has a sink to talk to.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a log-backed progress sink
func NewLogSink() *LogSink {
	return &LogSink{log: logger.Get().With("component", "progress")}
}

// Emit implements workflow.ProgressSink
func (s *LogSink) Emit(_ context.Context, event workflow.ProgressEvent) error {
	if event.PhaseID > 0 {
		s.log.Infof("Run %s: phase %d %s", event.RunID, event.PhaseID, event.Status)
	} else {
		s.log.Infof("Run %s: %s (%s)", event.RunID, event.Status, event.RunStatus)
	}
	return nil
}
