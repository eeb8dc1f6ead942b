package workflow

import "strings"

// JaccardConvergence reports convergence when every debate side's
// statement in the current round overlaps its previous-round statement
// above a token-set similarity threshold. Sides that spoke in only one
// of the two rounds break convergence.
type JaccardConvergence struct {
	Threshold float64
}

// NewJaccardConvergence creates a checker with a sensible threshold
func NewJaccardConvergence() *JaccardConvergence {
	return &JaccardConvergence{Threshold: 0.85}
}

// Converged implements ConvergenceChecker
func (j *JaccardConvergence) Converged(previous, current []Statement) bool {
	if len(previous) == 0 || len(current) == 0 {
		return false
	}

	prevBySlug := make(map[string]string, len(previous))
	for _, st := range previous {
		prevBySlug[st.Slug] = st.Text
	}

	for _, st := range current {
		prevText, ok := prevBySlug[st.Slug]
		if !ok {
			return false
		}
		if jaccard(tokenSet(prevText), tokenSet(st.Text)) < j.Threshold {
			return false
		}
	}
	return true
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}
