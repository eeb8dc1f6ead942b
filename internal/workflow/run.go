package workflow

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Run statuses. A run in flight reports "running-phase-N".
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// StatusRunningPhase reports which phase the run is currently executing
func StatusRunningPhase(phaseID int) string {
	return fmt.Sprintf("running-phase-%d", phaseID)
}

// AnalysisRun is one end-to-end execution instance. It is owned
// exclusively by the orchestrator for the run's duration: Results gains
// exactly one PhaseOutput per completed phase and no other writer
// touches it, so no locking is needed.
type AnalysisRun struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	AsOf   time.Time `json:"as_of"`

	// EnabledPhases toggles individual phases. A phase id absent from
	// the map counts as enabled.
	EnabledPhases  map[int]bool `json:"enabled_phases,omitempty"`
	RoundOverrides map[int]int  `json:"round_overrides,omitempty"`

	Status       string               `json:"status"`
	CurrentPhase int                  `json:"current_phase,omitempty"`
	Results      map[int]*PhaseOutput `json:"results"`

	FailedPhase int    `json:"failed_phase,omitempty"`
	FailedRole  string `json:"failed_role,omitempty"`
	Error       string `json:"error,omitempty"`

	TotalCostUSD decimal.Decimal `json:"total_cost_usd"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at,omitempty"`

	cancelled atomic.Bool
}

// NewAnalysisRun creates a pending run for one symbol and as-of date
func NewAnalysisRun(symbol string, asOf time.Time, toggles map[int]bool, roundOverrides map[int]int) *AnalysisRun {
	return &AnalysisRun{
		ID:             uuid.New().String(),
		Symbol:         symbol,
		AsOf:           asOf,
		EnabledPhases:  toggles,
		RoundOverrides: roundOverrides,
		Status:         StatusPending,
		Results:        make(map[int]*PhaseOutput),
		TotalCostUSD:   decimal.Zero,
		StartedAt:      time.Now(),
	}
}

// PhaseEnabled reports whether a phase should run. Absence from the
// toggle map means enabled.
func (r *AnalysisRun) PhaseEnabled(phaseID int) bool {
	if r.EnabledPhases == nil {
		return true
	}
	enabled, ok := r.EnabledPhases[phaseID]
	if !ok {
		return true
	}
	return enabled
}

// Cancel requests cooperative cancellation. The in-flight phase runs to
// completion; the orchestrator honors the request at the next phase
// boundary.
func (r *AnalysisRun) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested
func (r *AnalysisRun) Cancelled() bool {
	return r.cancelled.Load()
}

// IsTerminal reports whether the run has reached a final status
func (r *AnalysisRun) IsTerminal() bool {
	switch r.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
