package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccardConvergence_RepeatedStatementsConverge(t *testing.T) {
	checker := NewJaccardConvergence()

	prev := []Statement{
		{Round: 1, Slug: "bull-researcher", Text: "Strong revenue growth and expanding margins support a buy."},
		{Round: 1, Slug: "bear-researcher", Text: "Valuation is stretched and guidance is weak."},
	}
	curr := []Statement{
		{Round: 2, Slug: "bull-researcher", Text: "Strong revenue growth and expanding margins support a buy."},
		{Round: 2, Slug: "bear-researcher", Text: "Valuation is stretched and guidance is weak."},
	}

	assert.True(t, checker.Converged(prev, curr))
}

func TestJaccardConvergence_NewContentBreaksConvergence(t *testing.T) {
	checker := NewJaccardConvergence()

	prev := []Statement{
		{Round: 1, Slug: "bull-researcher", Text: "Strong revenue growth and expanding margins support a buy."},
	}
	curr := []Statement{
		{Round: 2, Slug: "bull-researcher", Text: "New supply chain data changes the picture entirely, shipping delays hurt Q3."},
	}

	assert.False(t, checker.Converged(prev, curr))
}

func TestJaccardConvergence_EmptyRoundsNeverConverge(t *testing.T) {
	checker := NewJaccardConvergence()

	assert.False(t, checker.Converged(nil, nil))
	assert.False(t, checker.Converged([]Statement{{Round: 1, Slug: "bull-researcher", Text: "text"}}, nil))
}

func TestJaccardConvergence_SideMismatchBreaksConvergence(t *testing.T) {
	checker := NewJaccardConvergence()

	prev := []Statement{
		{Round: 1, Slug: "bull-researcher", Text: "Strong revenue growth."},
	}
	curr := []Statement{
		{Round: 2, Slug: "bear-researcher", Text: "Strong revenue growth."},
	}

	assert.False(t, checker.Converged(prev, curr))
}

func TestPhaseDefinition_RoundsClamping(t *testing.T) {
	phase := PhaseDefinition{MinRounds: 1, DefaultRounds: 2, MaxRounds: 5}

	assert.Equal(t, 2, phase.Rounds(0))
	assert.Equal(t, 3, phase.Rounds(3))
	assert.Equal(t, 5, phase.Rounds(9))
	assert.Equal(t, 2, phase.Rounds(-1))
}

func TestExecutionOrderIsFixed(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4, 3}, ExecutionOrder)
}
