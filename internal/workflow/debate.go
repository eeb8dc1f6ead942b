package workflow

import (
	"context"
	"strconv"
	"time"

	"minerva/internal/agents"
	"minerva/internal/metrics"
	"minerva/internal/modes"
	"minerva/pkg/errors"
	"minerva/pkg/logger"

	"github.com/shopspring/decimal"
)

// DebateState names the stages of one adversarial phase
type DebateState string

const (
	StateAwaitingRound   DebateState = "awaiting_round"
	StateRoundInProgress DebateState = "round_in_progress"
	StateJudging         DebateState = "judging"
	StateDone            DebateState = "done"
)

// ConvergenceChecker decides whether the latest debate round added
// substantive content over the previous one. A nil checker disables
// early stop entirely.
type ConvergenceChecker interface {
	Converged(previous, current []Statement) bool
}

// DebateController runs phases with adversarial rounds: each side
// speaks once per round in fixed declaration order, then a judge
// produces the phase synthesis from the full transcript.
type DebateController struct {
	invoker     AgentInvoker
	convergence ConvergenceChecker
	log         *logger.Logger
}

// NewDebateController creates a controller. convergence may be nil.
func NewDebateController(invoker AgentInvoker, convergence ConvergenceChecker) *DebateController {
	return &DebateController{
		invoker:     invoker,
		convergence: convergence,
		log:         logger.Get().With("component", "debate_controller"),
	}
}

// RunDebate executes rounds of debate followed by a judged synthesis.
// The last role in declaration order is the judge; the roles before it
// are the debating sides. roundOverride selects the round count within
// the phase's bounds.
func (dc *DebateController) RunDebate(ctx context.Context, phase PhaseDefinition, roles []modes.AgentRoleConfig, req PhaseRequest, roundOverride int) (*PhaseOutput, error) {
	if len(roles) < 2 {
		return nil, errors.Wrapf(errors.ErrConfiguration, "phase %d: debate needs at least one side and a judge, got %d roles", phase.ID, len(roles))
	}

	sides := roles[:len(roles)-1]
	judge := roles[len(roles)-1]
	rounds := phase.Rounds(roundOverride)
	start := time.Now()

	out := &PhaseOutput{
		PhaseID:   phase.ID,
		PhaseName: phase.Name,
		Order:     rolesToSlugs(roles),
		Verdicts:  make(map[string]*agents.Verdict),
		CostUSD:   decimal.Zero,
	}

	var (
		state = StateAwaitingRound
		round = 0
	)
	for state != StateDone {
		switch state {
		case StateAwaitingRound:
			state = StateRoundInProgress

		case StateRoundInProgress:
			prev := roundStatements(out.Transcript, round)
			if err := dc.runRound(ctx, phase, sides, req, out, round+1); err != nil {
				return nil, err
			}
			round++

			if round >= rounds {
				state = StateJudging
				continue
			}
			// Early stop is permitted only once the minimum round count
			// is satisfied
			if dc.convergence != nil && round >= phase.MinRounds &&
				dc.convergence.Converged(prev, roundStatements(out.Transcript, round)) {
				dc.log.Infof("Debate converged after round %d of %d in phase %d", round, rounds, phase.ID)
				state = StateJudging
				continue
			}
			state = StateAwaitingRound

		case StateJudging:
			verdict, err := dc.invoker.Invoke(ctx, agents.Invocation{
				Role:     judge,
				Symbol:   req.Symbol,
				AsOf:     req.AsOf,
				Upstream: joinSections(req.Upstream, "## Debate transcript\n\n"+renderTranscript(out.Transcript)),
				Tools:    judge.Tools,
			})
			if err != nil {
				return nil, errors.PhaseFatal(phase.ID, judge.Slug, err)
			}
			out.Verdicts[judge.Slug] = verdict
			out.CostUSD = out.CostUSD.Add(verdict.CostUSD)
			out.Synthesis = verdict.Text
			state = StateDone
		}
	}

	out.Rounds = round
	out.Duration = time.Since(start)
	metrics.DebateRounds.WithLabelValues(strconv.Itoa(phase.ID)).Observe(float64(round))
	dc.log.Infof("Phase %d (%s) completed (rounds: %d/%d, cost: $%s, duration: %v)",
		phase.ID, phase.Name, round, rounds, out.CostUSD.StringFixed(4), out.Duration)
	return out, nil
}

// runRound lets every side speak once, in fixed declaration order, each
// seeing the full transcript so far. Any side failing is fatal: a
// debate with a silent participant has no meaningful synthesis.
func (dc *DebateController) runRound(ctx context.Context, phase PhaseDefinition, sides []modes.AgentRoleConfig, req PhaseRequest, out *PhaseOutput, round int) error {
	for _, role := range sides {
		upstream := req.Upstream
		if transcript := renderTranscript(out.Transcript); transcript != "" {
			upstream = joinSections(upstream, "## Debate so far\n\n"+transcript)
		}

		verdict, err := dc.invoker.Invoke(ctx, agents.Invocation{
			Role:     role,
			Symbol:   req.Symbol,
			AsOf:     req.AsOf,
			Upstream: upstream,
			Tools:    role.Tools,
		})
		if err != nil {
			return errors.PhaseFatal(phase.ID, role.Slug, err)
		}

		out.Transcript = append(out.Transcript, Statement{Round: round, Slug: role.Slug, Text: verdict.Text})
		out.Verdicts[role.Slug] = verdict
		out.CostUSD = out.CostUSD.Add(verdict.CostUSD)
	}
	return nil
}

func roundStatements(history []Statement, round int) []Statement {
	var stmts []Statement
	for _, st := range history {
		if st.Round == round {
			stmts = append(stmts, st)
		}
	}
	return stmts
}

func rolesToSlugs(roles []modes.AgentRoleConfig) []string {
	slugs := make([]string, len(roles))
	for i, r := range roles {
		slugs[i] = r.Slug
	}
	return slugs
}

func joinSections(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n\n" + b
}
