package workflow

import (
	"context"
	"sync"
	"time"

	"minerva/internal/agents"
	"minerva/internal/modes"
	"minerva/pkg/errors"
	"minerva/pkg/logger"

	"github.com/shopspring/decimal"
)

// AgentInvoker produces one verdict for one configured role. Satisfied
// by agents.Invoker in production and by test doubles in tests.
type AgentInvoker interface {
	Invoke(ctx context.Context, call agents.Invocation) (*agents.Verdict, error)
}

// PhaseRequest carries the run-scoped inputs shared by every role in a phase
type PhaseRequest struct {
	Symbol   string
	AsOf     time.Time
	Upstream string
}

// PhaseRunner executes one non-debate phase: parallel fan-out with a
// join barrier, or strictly ordered sequential invocation.
type PhaseRunner struct {
	invoker        AgentInvoker
	maxConcurrency int
	log            *logger.Logger
}

// NewPhaseRunner creates a runner. maxConcurrency bounds parallel
// fan-out; values below 1 mean unbounded.
func NewPhaseRunner(invoker AgentInvoker, maxConcurrency int) *PhaseRunner {
	return &PhaseRunner{
		invoker:        invoker,
		maxConcurrency: maxConcurrency,
		log:            logger.Get().With("component", "phase_runner"),
	}
}

// Run executes the phase against the given role set and returns its
// output, or a fatal error when the phase cannot produce a complete one
func (pr *PhaseRunner) Run(ctx context.Context, phase PhaseDefinition, roles []modes.AgentRoleConfig, req PhaseRequest) (*PhaseOutput, error) {
	start := time.Now()

	var (
		out *PhaseOutput
		err error
	)
	switch phase.Pattern {
	case PatternParallel:
		out, err = pr.runParallel(ctx, phase, roles, req)
	case PatternSequential:
		out, err = pr.runSequential(ctx, phase, roles, req)
	default:
		return nil, errors.Wrapf(errors.ErrConfiguration, "phase %d: pattern %q is not handled by PhaseRunner", phase.ID, phase.Pattern)
	}
	if err != nil {
		return nil, err
	}

	out.Duration = time.Since(start)
	pr.log.Infof("Phase %d (%s) completed (roles: %d, failed: %d, cost: $%s, duration: %v)",
		phase.ID, phase.Name, len(out.Verdicts), len(out.Failed), out.CostUSD.StringFixed(4), out.Duration)
	return out, nil
}

type roleResult struct {
	index   int
	verdict *agents.Verdict
	err     error
}

// runParallel dispatches every role concurrently and waits for all of
// them before merging. Results land in independent per-index slots, so
// the fan-out shares no mutable state; merge order follows role
// declaration order, never completion order.
func (pr *PhaseRunner) runParallel(ctx context.Context, phase PhaseDefinition, roles []modes.AgentRoleConfig, req PhaseRequest) (*PhaseOutput, error) {
	results := make([]roleResult, len(roles))

	var wg sync.WaitGroup
	limit := pr.maxConcurrency
	if limit < 1 {
		limit = len(roles)
	}
	semaphore := make(chan struct{}, limit)

	for i, role := range roles {
		wg.Add(1)
		go func(idx int, r modes.AgentRoleConfig) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			verdict, err := pr.invoker.Invoke(ctx, agents.Invocation{
				Role:     r,
				Symbol:   req.Symbol,
				AsOf:     req.AsOf,
				Upstream: req.Upstream,
				Tools:    r.Tools,
			})
			results[idx] = roleResult{index: idx, verdict: verdict, err: err}
		}(i, role)
	}

	// Join barrier: the phase output exists only once every role task finished
	wg.Wait()

	out := pr.newOutput(phase, roles)
	for i, role := range roles {
		res := results[i]
		if res.err != nil {
			if role.Mandatory {
				return nil, errors.PhaseFatal(phase.ID, role.Slug, res.err)
			}
			pr.log.Warnf("Role %s failed in phase %d, continuing without it: %v", role.Slug, phase.ID, res.err)
			out.Failed[role.Slug] = res.err.Error()
			continue
		}
		out.Verdicts[role.Slug] = res.verdict
		out.CostUSD = out.CostUSD.Add(res.verdict.CostUSD)
	}
	return out, nil
}

// runSequential invokes roles strictly in declaration order. Each role
// sees the verdicts of all prior roles in this phase appended to the
// upstream context. Any failure aborts the phase: a later role cannot
// run meaningfully without its predecessor's output.
func (pr *PhaseRunner) runSequential(ctx context.Context, phase PhaseDefinition, roles []modes.AgentRoleConfig, req PhaseRequest) (*PhaseOutput, error) {
	out := pr.newOutput(phase, roles)

	for _, role := range roles {
		upstream := req.Upstream
		if prior := out.Merged(); prior != "" {
			upstream = upstream + "\n\n## Earlier in this phase\n\n" + prior
		}

		verdict, err := pr.invoker.Invoke(ctx, agents.Invocation{
			Role:     role,
			Symbol:   req.Symbol,
			AsOf:     req.AsOf,
			Upstream: upstream,
			Tools:    role.Tools,
		})
		if err != nil {
			return nil, errors.PhaseFatal(phase.ID, role.Slug, err)
		}

		out.Verdicts[role.Slug] = verdict
		out.CostUSD = out.CostUSD.Add(verdict.CostUSD)
	}
	return out, nil
}

func (pr *PhaseRunner) newOutput(phase PhaseDefinition, roles []modes.AgentRoleConfig) *PhaseOutput {
	order := make([]string, len(roles))
	for i, r := range roles {
		order[i] = r.Slug
	}
	return &PhaseOutput{
		PhaseID:   phase.ID,
		PhaseName: phase.Name,
		Order:     order,
		Verdicts:  make(map[string]*agents.Verdict),
		Failed:    make(map[string]string),
		CostUSD:   decimal.Zero,
	}
}
