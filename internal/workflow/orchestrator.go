package workflow

import (
	"context"
	"strconv"
	"sync"
	"time"

	"minerva/internal/metrics"
	"minerva/internal/modes"
	"minerva/pkg/errors"
	"minerva/pkg/logger"

	"github.com/shopspring/decimal"
)

// ConfigSource resolves the role set of one phase. Satisfied by
// modes.Resolver in production.
type ConfigSource interface {
	Resolve(phaseID int) (*modes.PhaseAgentSet, error)
}

// Options tune run-wide orchestrator behavior
type Options struct {
	// PhaseTimeout bounds one phase's wall time. Zero disables the bound.
	PhaseTimeout time.Duration

	// MaxCostUSD aborts the run once accumulated AI spend crosses the
	// budget, checked at phase boundaries. Zero disables the check.
	MaxCostUSD decimal.Decimal
}

// RunRequest describes one analysis to execute
type RunRequest struct {
	Symbol         string
	AsOf           time.Time
	PhaseToggles   map[int]bool
	RoundOverrides map[int]int
}

// Orchestrator drives phases through the fixed execution order. Phase
// enable/disable and round counts are the only runtime degrees of
// freedom; the order itself is never renegotiated.
type Orchestrator struct {
	phases  map[int]PhaseDefinition
	configs ConfigSource
	runner  *PhaseRunner
	debate  *DebateController
	sink    ProgressSink
	store   RunStore
	opts    Options
	log     *logger.Logger

	mu     sync.RWMutex
	active map[string]*AnalysisRun
}

// NewOrchestrator wires the orchestrator. sink and store may be nil.
func NewOrchestrator(configs ConfigSource, runner *PhaseRunner, debate *DebateController, sink ProgressSink, store RunStore, opts Options) *Orchestrator {
	return &Orchestrator{
		phases:  DefaultPhases(),
		configs: configs,
		runner:  runner,
		debate:  debate,
		sink:    sink,
		store:   store,
		opts:    opts,
		log:     logger.Get().With("component", "orchestrator"),
		active:  make(map[string]*AnalysisRun),
	}
}

// StartRun executes one analysis end to end and returns the terminal
// run. A non-nil error means the run never started: role configuration
// for a required phase was missing or unusable. Failures during
// execution are reported through the run's status, failed phase and
// role, never through the error return.
func (o *Orchestrator) StartRun(ctx context.Context, req RunRequest) (*AnalysisRun, error) {
	if req.Symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "symbol is required")
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	run := NewAnalysisRun(req.Symbol, asOf, req.PhaseToggles, req.RoundOverrides)

	// Resolve every enabled phase before any phase executes so that
	// configuration problems surface up front and the run never starts
	resolved, err := o.resolveAll(run)
	if err != nil {
		return nil, err
	}

	o.log.Infof("Starting analysis run %s (symbol: %s, as_of: %s)", run.ID, run.Symbol, run.AsOf.Format("2006-01-02"))
	metrics.RunsStarted.Inc()

	o.mu.Lock()
	o.active[run.ID] = run
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.active, run.ID)
		o.mu.Unlock()
	}()

	o.execute(ctx, run, resolved)
	return run, nil
}

// CancelRun requests cooperative cancellation of an in-flight run. The
// current phase finishes; the run turns cancelled at the next phase
// boundary. Run IDs are delivered to callers through progress events.
func (o *Orchestrator) CancelRun(runID string) error {
	o.mu.RLock()
	run, ok := o.active[runID]
	o.mu.RUnlock()
	if !ok {
		return errors.Wrapf(errors.ErrRunNotFound, "run_id=%s", runID)
	}
	run.Cancel()
	return nil
}

func (o *Orchestrator) resolveAll(run *AnalysisRun) (map[int]*modes.PhaseAgentSet, error) {
	resolved := make(map[int]*modes.PhaseAgentSet)
	for _, phaseID := range ExecutionOrder {
		if !run.PhaseEnabled(phaseID) {
			continue
		}
		set, err := o.configs.Resolve(phaseID)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrConfiguration, "phase %d: %v", phaseID, err)
		}
		if !set.Exists || len(set.Roles) == 0 {
			if o.phases[phaseID].Required {
				return nil, errors.Wrapf(errors.ErrConfiguration, "phase %d is mandatory but has no usable roles (path: %s)", phaseID, set.Path)
			}
			// Optional phase without configuration degrades to a skip
			continue
		}
		resolved[phaseID] = set
	}
	return resolved, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *AnalysisRun, resolved map[int]*modes.PhaseAgentSet) {
	for _, phaseID := range ExecutionOrder {
		// Cancellation is cooperative: honored only between phases, an
		// in-flight phase always runs to completion first
		if run.Cancelled() {
			o.finish(ctx, run, StatusCancelled)
			return
		}

		set, ok := resolved[phaseID]
		if !ok {
			o.emit(ctx, run, phaseID, EventPhaseSkipped)
			metrics.PhaseExecutions.WithLabelValues(strconv.Itoa(phaseID), "skipped").Inc()
			continue
		}

		if o.budgetExceeded(run) {
			run.FailedPhase = phaseID
			run.Error = "cost budget exceeded: $" + run.TotalCostUSD.StringFixed(4)
			o.finish(ctx, run, StatusFailed)
			return
		}

		phase := o.phases[phaseID]
		run.CurrentPhase = phaseID
		run.Status = StatusRunningPhase(phaseID)
		o.emit(ctx, run, phaseID, EventPhaseStarted)

		out, err := o.runPhase(ctx, run, phase, set)
		if err != nil {
			run.FailedPhase = phaseID
			run.Error = err.Error()
			var roleErr *errors.RoleError
			if errors.As(err, &roleErr) {
				run.FailedRole = roleErr.Slug
			}
			o.log.Errorf("Run %s failed in phase %d: %v", run.ID, phaseID, err)
			metrics.PhaseExecutions.WithLabelValues(strconv.Itoa(phaseID), "failed").Inc()
			o.emit(ctx, run, phaseID, EventPhaseFailed)
			o.finish(ctx, run, StatusFailed)
			return
		}

		run.Results[phaseID] = out
		run.TotalCostUSD = run.TotalCostUSD.Add(out.CostUSD)
		metrics.PhaseExecutions.WithLabelValues(strconv.Itoa(phaseID), "completed").Inc()
		metrics.PhaseDuration.WithLabelValues(strconv.Itoa(phaseID)).Observe(out.Duration.Seconds())
		o.emit(ctx, run, phaseID, EventPhaseCompleted)
	}

	o.finish(ctx, run, StatusCompleted)
}

func (o *Orchestrator) runPhase(ctx context.Context, run *AnalysisRun, phase PhaseDefinition, set *modes.PhaseAgentSet) (*PhaseOutput, error) {
	if o.opts.PhaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.PhaseTimeout)
		defer cancel()
	}

	req := PhaseRequest{
		Symbol:   run.Symbol,
		AsOf:     run.AsOf,
		Upstream: UpstreamContext(run.Results),
	}

	if phase.Pattern == PatternDebate {
		return o.debate.RunDebate(ctx, phase, set.Roles, req, run.RoundOverrides[phase.ID])
	}
	return o.runner.Run(ctx, phase, set.Roles, req)
}

func (o *Orchestrator) budgetExceeded(run *AnalysisRun) bool {
	return o.opts.MaxCostUSD.IsPositive() && run.TotalCostUSD.GreaterThan(o.opts.MaxCostUSD)
}

func (o *Orchestrator) finish(ctx context.Context, run *AnalysisRun, status string) {
	run.Status = status
	run.CurrentPhase = 0
	run.FinishedAt = time.Now()

	duration := run.FinishedAt.Sub(run.StartedAt)
	metrics.RunsFinished.WithLabelValues(status).Inc()
	metrics.RunDuration.Observe(duration.Seconds())

	o.log.Infof("Run %s finished (status: %s, phases: %d, cost: $%s, duration: %v)",
		run.ID, status, len(run.Results), run.TotalCostUSD.StringFixed(4), duration)

	o.emit(ctx, run, 0, EventRunFinished)

	if o.store != nil {
		if err := o.store.SaveRun(ctx, run); err != nil {
			o.log.Errorf("Failed to archive run %s: %v", run.ID, err)
		}
	}
}

func (o *Orchestrator) emit(ctx context.Context, run *AnalysisRun, phaseID int, status string) {
	if o.sink == nil {
		return
	}
	event := ProgressEvent{
		RunID:     run.ID,
		Symbol:    run.Symbol,
		PhaseID:   phaseID,
		Status:    status,
		RunStatus: run.Status,
		Timestamp: time.Now(),
	}
	if err := o.sink.Emit(ctx, event); err != nil {
		o.log.Warnf("Failed to emit progress event for run %s: %v", run.ID, err)
	}
}
