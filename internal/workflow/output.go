package workflow

import (
	"fmt"
	"strings"
	"time"

	"minerva/internal/agents"

	"github.com/shopspring/decimal"
)

// Statement is one contribution to a debate transcript
type Statement struct {
	Round int    `json:"round"`
	Slug  string `json:"slug"`
	Text  string `json:"text"`
}

// PhaseOutput is the immutable result of one executed phase. Later
// phases consume it read-only as upstream context.
type PhaseOutput struct {
	PhaseID   int    `json:"phase_id"`
	PhaseName string `json:"phase_name"`

	// Order preserves role declaration order from configuration so that
	// merged context is deterministic regardless of completion order
	Order    []string                   `json:"order"`
	Verdicts map[string]*agents.Verdict `json:"verdicts"`

	// Failed maps slugs of optional roles that errored to their failure
	// reason. Mandatory role failures never produce a PhaseOutput.
	Failed map[string]string `json:"failed,omitempty"`

	Synthesis  string          `json:"synthesis,omitempty"`
	Transcript []Statement     `json:"transcript,omitempty"`
	Rounds     int             `json:"rounds,omitempty"`
	CostUSD    decimal.Decimal `json:"cost_usd"`
	Duration   time.Duration   `json:"duration"`
}

// Merged concatenates role verdicts in declaration order. Roles that
// failed contribute a short marker instead of a verdict.
func (o *PhaseOutput) Merged() string {
	var b strings.Builder
	for _, slug := range o.Order {
		if v, ok := o.Verdicts[slug]; ok {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", slug, v.Text)
			continue
		}
		if reason, ok := o.Failed[slug]; ok {
			fmt.Fprintf(&b, "### %s\n\n(unavailable: %s)\n\n", slug, reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ContextSection renders the phase as one upstream section for
// downstream prompts. Debate phases contribute their synthesis, other
// phases the merged verdicts.
func (o *PhaseOutput) ContextSection() string {
	body := o.Synthesis
	if body == "" {
		body = o.Merged()
	}
	return fmt.Sprintf("## %s\n\n%s", o.PhaseName, body)
}

// TranscriptText renders the debate history for judge and later-round prompts
func (o *PhaseOutput) TranscriptText() string {
	return renderTranscript(o.Transcript)
}

func renderTranscript(history []Statement) string {
	var b strings.Builder
	round := 0
	for _, st := range history {
		if st.Round != round {
			round = st.Round
			fmt.Fprintf(&b, "--- Round %d ---\n\n", round)
		}
		fmt.Fprintf(&b, "[%s]: %s\n\n", st.Slug, st.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// UpstreamContext assembles the outputs of every completed phase, in
// execution order, into one context string for the next phase. Phases
// that were disabled or never ran are simply absent.
func UpstreamContext(results map[int]*PhaseOutput) string {
	var sections []string
	for _, id := range ExecutionOrder {
		if out, ok := results[id]; ok {
			sections = append(sections, out.ContextSection())
		}
	}
	return strings.Join(sections, "\n\n")
}
