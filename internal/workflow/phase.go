package workflow

import "time"

// Pattern describes how the roles inside a phase interact
type Pattern string

const (
	// PatternParallel fans all roles out concurrently and merges their
	// verdicts in declaration order once every role has finished
	PatternParallel Pattern = "parallel-then-merge"

	// PatternSequential runs roles strictly in declaration order, each
	// role seeing the outputs of the roles before it
	PatternSequential Pattern = "sequential"

	// PatternDebate runs adversarial rounds followed by a judged synthesis
	PatternDebate Pattern = "adversarial-debate"
)

// PhaseDefinition is an immutable descriptor of one pipeline stage.
// Instances are created once at process start and shared read-only by
// every running analysis.
type PhaseDefinition struct {
	ID       int
	Name     string
	Pattern  Pattern
	Required bool

	// Round bounds apply to debate phases only
	MinRounds     int
	DefaultRounds int
	MaxRounds     int

	// RoundEstimate is a rough per-round wall time used for progress hints
	RoundEstimate time.Duration
}

// Rounds clamps an override into the phase's round bounds. A zero or
// negative override selects the default.
func (p PhaseDefinition) Rounds(override int) int {
	rounds := p.DefaultRounds
	if override > 0 {
		rounds = override
	}
	if rounds < p.MinRounds {
		rounds = p.MinRounds
	}
	if p.MaxRounds > 0 && rounds > p.MaxRounds {
		rounds = p.MaxRounds
	}
	return rounds
}

// ExecutionOrder is the single source of truth for phase sequencing:
// analysts, research debate, trading decision, risk committee. Runtime
// configuration may disable a phase but never reorder this list.
var ExecutionOrder = []int{PhaseAnalysts, PhaseResearchDebate, PhaseDecision, PhaseRiskDebate}

const (
	PhaseAnalysts       = 1
	PhaseResearchDebate = 2
	PhaseRiskDebate     = 3
	PhaseDecision       = 4
)

// DefaultPhases returns the static phase catalog keyed by phase id
func DefaultPhases() map[int]PhaseDefinition {
	return map[int]PhaseDefinition{
		PhaseAnalysts: {
			ID:            PhaseAnalysts,
			Name:          "Analyst Team",
			Pattern:       PatternParallel,
			Required:      true,
			RoundEstimate: 90 * time.Second,
		},
		PhaseResearchDebate: {
			ID:            PhaseResearchDebate,
			Name:          "Research Debate",
			Pattern:       PatternDebate,
			MinRounds:     1,
			DefaultRounds: 1,
			MaxRounds:     5,
			RoundEstimate: 2 * time.Minute,
		},
		PhaseRiskDebate: {
			ID:            PhaseRiskDebate,
			Name:          "Risk Committee",
			Pattern:       PatternDebate,
			MinRounds:     1,
			DefaultRounds: 1,
			MaxRounds:     3,
			RoundEstimate: 2 * time.Minute,
		},
		PhaseDecision: {
			ID:            PhaseDecision,
			Name:          "Trading Decision",
			Pattern:       PatternSequential,
			Required:      true,
			RoundEstimate: time.Minute,
		},
	}
}
