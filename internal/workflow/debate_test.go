package workflow

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/agents"
	"minerva/internal/modes"
	"minerva/pkg/errors"
)

func debatePhase(minRounds, defaultRounds, maxRounds int) PhaseDefinition {
	return PhaseDefinition{
		ID:            2,
		Name:          "Research Debate",
		Pattern:       PatternDebate,
		MinRounds:     minRounds,
		DefaultRounds: defaultRounds,
		MaxRounds:     maxRounds,
	}
}

func debateRoles() []modes.AgentRoleConfig {
	return []modes.AgentRoleConfig{
		testRole("bull-researcher"),
		testRole("bear-researcher"),
		testRole("research-manager"),
	}
}

// scheduledConvergence reports convergence starting from a fixed call number
type scheduledConvergence struct {
	calls        int
	convergeFrom int
}

func (s *scheduledConvergence) Converged(previous, current []Statement) bool {
	s.calls++
	return s.calls >= s.convergeFrom
}

func TestDebateController_TwoRoundsProduceOrderedTranscript(t *testing.T) {
	invoker := &mockInvoker{}
	dc := NewDebateController(invoker, nil)

	out, err := dc.RunDebate(context.Background(), debatePhase(1, 1, 5), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Rounds)
	require.Len(t, out.Transcript, 4)

	expected := []struct {
		round int
		slug  string
	}{
		{1, "bull-researcher"},
		{1, "bear-researcher"},
		{2, "bull-researcher"},
		{2, "bear-researcher"},
	}
	for i, want := range expected {
		assert.Equal(t, want.round, out.Transcript[i].Round, "entry %d round", i)
		assert.Equal(t, want.slug, out.Transcript[i].Slug, "entry %d slug", i)
	}

	// The judge speaks last, sees the transcript, and its text becomes
	// the synthesis
	calls := invoker.invocations()
	require.Len(t, calls, 5)
	judgeCall := calls[4]
	assert.Equal(t, "research-manager", judgeCall.Role.Slug)
	assert.Contains(t, judgeCall.Upstream, "Round 2")
	assert.Equal(t, "verdict from research-manager", out.Synthesis)
}

func TestDebateController_LaterRoundsSeeFullHistory(t *testing.T) {
	invoker := &mockInvoker{}
	dc := NewDebateController(invoker, nil)

	_, err := dc.RunDebate(context.Background(), debatePhase(1, 1, 5), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 2)
	require.NoError(t, err)

	calls := invoker.invocations()
	require.Len(t, calls, 5)

	// First speaker of round 1 has no history yet
	assert.NotContains(t, calls[0].Upstream, "Debate so far")
	// Second speaker of round 1 sees the first speaker's statement
	assert.Contains(t, calls[1].Upstream, "bull-researcher")
	// First speaker of round 2 sees both round-1 statements
	assert.Contains(t, calls[2].Upstream, "bear-researcher")
}

func TestDebateController_EarlyStopNeverFiresBeforeMinRounds(t *testing.T) {
	invoker := &mockInvoker{}
	// Convergence reports true from the very first check
	dc := NewDebateController(invoker, &scheduledConvergence{convergeFrom: 1})

	out, err := dc.RunDebate(context.Background(), debatePhase(2, 2, 5), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 5)
	require.NoError(t, err)

	// Stops right after the minimum, well short of the configured 5
	assert.Equal(t, 2, out.Rounds)
}

func TestDebateController_NoConvergenceRunsAllRounds(t *testing.T) {
	invoker := &mockInvoker{}
	dc := NewDebateController(invoker, &scheduledConvergence{convergeFrom: 100})

	out, err := dc.RunDebate(context.Background(), debatePhase(1, 1, 5), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rounds)
}

func TestDebateController_RoundOverrideClampedToBounds(t *testing.T) {
	invoker := &mockInvoker{}
	dc := NewDebateController(invoker, nil)

	out, err := dc.RunDebate(context.Background(), debatePhase(1, 1, 3), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rounds)

	out, err = dc.RunDebate(context.Background(), debatePhase(2, 2, 3), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rounds)
}

func TestDebateController_SideFailureIsFatal(t *testing.T) {
	invoker := &mockInvoker{
		invokeFunc: func(ctx context.Context, call agents.Invocation) (*agents.Verdict, error) {
			if call.Role.Slug == "bear-researcher" {
				return nil, errors.Wrap(errors.ErrUpstreamCapability, "model timed out")
			}
			return &agents.Verdict{Slug: call.Role.Slug, Text: "ok", CostUSD: decimal.Zero}, nil
		},
	}
	dc := NewDebateController(invoker, nil)

	out, err := dc.RunDebate(context.Background(), debatePhase(1, 1, 5), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 1)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, errors.ErrPhaseFatal))

	var roleErr *errors.RoleError
	require.True(t, errors.As(err, &roleErr))
	assert.Equal(t, "bear-researcher", roleErr.Slug)
}

func TestDebateController_JudgeFailureIsFatal(t *testing.T) {
	invoker := &mockInvoker{
		invokeFunc: func(ctx context.Context, call agents.Invocation) (*agents.Verdict, error) {
			if call.Role.Slug == "research-manager" {
				return nil, errors.Wrap(errors.ErrUpstreamCapability, "model timed out")
			}
			return &agents.Verdict{Slug: call.Role.Slug, Text: "ok", CostUSD: decimal.Zero}, nil
		},
	}
	dc := NewDebateController(invoker, nil)

	_, err := dc.RunDebate(context.Background(), debatePhase(1, 1, 5), debateRoles(), PhaseRequest{Symbol: "AAPL"}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPhaseFatal))

	var roleErr *errors.RoleError
	require.True(t, errors.As(err, &roleErr))
	assert.Equal(t, "research-manager", roleErr.Slug)
}

func TestDebateController_TooFewRolesIsConfigurationError(t *testing.T) {
	dc := NewDebateController(&mockInvoker{}, nil)

	_, err := dc.RunDebate(context.Background(), debatePhase(1, 1, 5), []modes.AgentRoleConfig{testRole("bull-researcher")}, PhaseRequest{}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
