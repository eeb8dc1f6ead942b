package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/agents"
	"minerva/internal/modes"
	"minerva/pkg/errors"
)

// mockConfigSource implements ConfigSource over a fixed set of phase configs
type mockConfigSource struct {
	sets map[int]*modes.PhaseAgentSet
}

func (m *mockConfigSource) Resolve(phaseID int) (*modes.PhaseAgentSet, error) {
	if set, ok := m.sets[phaseID]; ok {
		return set, nil
	}
	return &modes.PhaseAgentSet{PhaseID: phaseID, Exists: false}, nil
}

// recordingSink captures progress events and optionally reacts to them
type recordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
	onEmit func(ProgressEvent)
}

func (s *recordingSink) Emit(_ context.Context, event ProgressEvent) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	if s.onEmit != nil {
		s.onEmit(event)
	}
	return nil
}

func (s *recordingSink) phaseStarts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for _, e := range s.events {
		if e.Status == EventPhaseStarted {
			ids = append(ids, e.PhaseID)
		}
	}
	return ids
}

func (s *recordingSink) skipped() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for _, e := range s.events {
		if e.Status == EventPhaseSkipped {
			ids = append(ids, e.PhaseID)
		}
	}
	return ids
}

// memStore captures the archived run
type memStore struct {
	saved *AnalysisRun
}

func (m *memStore) SaveRun(_ context.Context, run *AnalysisRun) error {
	m.saved = run
	return nil
}

func roleSet(phaseID int, slugs ...string) *modes.PhaseAgentSet {
	roles := make([]modes.AgentRoleConfig, len(slugs))
	for i, slug := range slugs {
		roles[i] = testRole(slug)
	}
	return &modes.PhaseAgentSet{PhaseID: phaseID, Exists: true, Roles: roles}
}

func fullConfig() *mockConfigSource {
	return &mockConfigSource{sets: map[int]*modes.PhaseAgentSet{
		PhaseAnalysts:       roleSet(PhaseAnalysts, "market-analyst", "news-analyst"),
		PhaseResearchDebate: roleSet(PhaseResearchDebate, "bull-researcher", "bear-researcher", "research-manager"),
		PhaseRiskDebate:     roleSet(PhaseRiskDebate, "risky-analyst", "safe-analyst", "neutral-analyst", "risk-judge"),
		PhaseDecision:       roleSet(PhaseDecision, "trader", "summary-agent"),
	}}
}

func newTestOrchestrator(invoker AgentInvoker, configs ConfigSource, sink ProgressSink, store RunStore, opts Options) *Orchestrator {
	runner := NewPhaseRunner(invoker, 0)
	debate := NewDebateController(invoker, nil)
	return NewOrchestrator(configs, runner, debate, sink, store, opts)
}

func TestOrchestrator_FullRunFollowsFixedPhaseOrder(t *testing.T) {
	invoker := &mockInvoker{}
	sink := &recordingSink{}
	store := &memStore{}
	orch := newTestOrchestrator(invoker, fullConfig(), sink, store, Options{})

	run, err := orch.StartRun(context.Background(), RunRequest{Symbol: "AAPL", AsOf: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Len(t, run.Results, 4)
	assert.Equal(t, []int{1, 2, 4, 3}, sink.phaseStarts())
	assert.True(t, run.TotalCostUSD.IsPositive())

	require.NotNil(t, store.saved)
	assert.Equal(t, StatusCompleted, store.saved.Status)
}

func TestOrchestrator_DisabledPhasesAreSkippedNotReordered(t *testing.T) {
	invoker := &mockInvoker{}
	sink := &recordingSink{}
	orch := newTestOrchestrator(invoker, fullConfig(), sink, nil, Options{})

	toggles := map[int]bool{PhaseResearchDebate: false, PhaseRiskDebate: false}
	run, err := orch.StartRun(context.Background(), RunRequest{Symbol: "AAPL", PhaseToggles: toggles})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, []int{1, 4}, sink.phaseStarts())
	assert.ElementsMatch(t, []int{2, 3}, sink.skipped())

	// The decision phase degrades to only the analyst output
	var traderCall *agents.Invocation
	for _, call := range invoker.invocations() {
		if call.Role.Slug == "trader" {
			c := call
			traderCall = &c
			break
		}
	}
	require.NotNil(t, traderCall)
	assert.Contains(t, traderCall.Upstream, "Analyst Team")
	assert.NotContains(t, traderCall.Upstream, "Research Debate")
	assert.NotContains(t, traderCall.Upstream, "Risk Committee")
}

func TestOrchestrator_SequentialFailureKeepsOnlyPriorPhases(t *testing.T) {
	invoker := &mockInvoker{
		invokeFunc: func(ctx context.Context, call agents.Invocation) (*agents.Verdict, error) {
			if call.Role.Slug == "trader" {
				return nil, errors.Wrap(errors.ErrUpstreamCapability, "model timed out")
			}
			return &agents.Verdict{Slug: call.Role.Slug, Text: "verdict from " + call.Role.Slug, CostUSD: decimal.Zero}, nil
		},
	}
	sink := &recordingSink{}
	orch := newTestOrchestrator(invoker, fullConfig(), sink, nil, Options{})

	run, err := orch.StartRun(context.Background(), RunRequest{Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, PhaseDecision, run.FailedPhase)
	assert.Equal(t, "trader", run.FailedRole)
	assert.NotEmpty(t, run.Error)

	// Phases 1 and 2 completed before the failure; phase 3 never ran
	assert.Contains(t, run.Results, PhaseAnalysts)
	assert.Contains(t, run.Results, PhaseResearchDebate)
	assert.NotContains(t, run.Results, PhaseDecision)
	assert.NotContains(t, run.Results, PhaseRiskDebate)
}

func TestOrchestrator_CancellationHonoredAtPhaseBoundary(t *testing.T) {
	invoker := &mockInvoker{}
	sink := &recordingSink{}
	orch := newTestOrchestrator(invoker, fullConfig(), sink, nil, Options{})

	// Request cancellation as soon as phase 1 completes; the run must
	// stop before phase 2 starts
	sink.onEmit = func(event ProgressEvent) {
		if event.PhaseID == PhaseAnalysts && event.Status == EventPhaseCompleted {
			require.NoError(t, orch.CancelRun(event.RunID))
		}
	}

	run, err := orch.StartRun(context.Background(), RunRequest{Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, run.Status)
	assert.Equal(t, []int{1}, sink.phaseStarts())
	assert.Contains(t, run.Results, PhaseAnalysts)
	assert.Len(t, run.Results, 1)
}

func TestOrchestrator_CancelUnknownRun(t *testing.T) {
	orch := newTestOrchestrator(&mockInvoker{}, fullConfig(), nil, nil, Options{})

	err := orch.CancelRun("no-such-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRunNotFound))
}

func TestOrchestrator_MissingMandatoryConfigNeverStarts(t *testing.T) {
	configs := fullConfig()
	delete(configs.sets, PhaseAnalysts)

	invoker := &mockInvoker{}
	orch := newTestOrchestrator(invoker, configs, nil, nil, Options{})

	run, err := orch.StartRun(context.Background(), RunRequest{Symbol: "AAPL"})
	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	// No agent was ever invoked
	assert.Empty(t, invoker.invocations())
}

func TestOrchestrator_MissingOptionalConfigDegradesToSkip(t *testing.T) {
	configs := fullConfig()
	delete(configs.sets, PhaseResearchDebate)
	delete(configs.sets, PhaseRiskDebate)

	sink := &recordingSink{}
	orch := newTestOrchestrator(&mockInvoker{}, configs, sink, nil, Options{})

	run, err := orch.StartRun(context.Background(), RunRequest{Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, []int{1, 4}, sink.phaseStarts())
}

func TestOrchestrator_EmptySymbolRejected(t *testing.T) {
	orch := newTestOrchestrator(&mockInvoker{}, fullConfig(), nil, nil, Options{})

	_, err := orch.StartRun(context.Background(), RunRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestOrchestrator_CostBudgetAbortsRun(t *testing.T) {
	invoker := &mockInvoker{
		invokeFunc: func(ctx context.Context, call agents.Invocation) (*agents.Verdict, error) {
			return &agents.Verdict{Slug: call.Role.Slug, Text: "ok", CostUSD: decimal.NewFromFloat(1.0)}, nil
		},
	}
	sink := &recordingSink{}
	orch := newTestOrchestrator(invoker, fullConfig(), sink, nil, Options{
		MaxCostUSD: decimal.NewFromFloat(0.5),
	})

	run, err := orch.StartRun(context.Background(), RunRequest{Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, run.Status)
	assert.Contains(t, run.Error, "cost budget")
	assert.Equal(t, []int{1}, sink.phaseStarts())
	assert.Contains(t, run.Results, PhaseAnalysts)
}
