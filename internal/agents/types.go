package agents

import (
	"time"

	"github.com/shopspring/decimal"

	"minerva/internal/modes"
)

// Invocation carries everything one agent call needs: the role's static
// configuration plus the dynamic run context.
type Invocation struct {
	Role   modes.AgentRoleConfig
	Symbol string
	AsOf   time.Time

	// Task is the instruction for this call. Empty means the role's
	// initial-task template (or a generic analysis request) is used.
	Task string

	// Upstream is the accumulated context from previously completed work:
	// earlier phases, and for debates the transcript so far.
	Upstream string

	// Tools names the data tools to execute before the model call. Each is
	// checked against the role's allow-list.
	Tools []string

	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ToolCall records one data tool executed for an invocation.
type ToolCall struct {
	Name       string        `json:"name"`
	Duration   time.Duration `json:"duration"`
	Err        string        `json:"error,omitempty"`
	ResultSize int           `json:"result_size"`
}

// Verdict is the outcome of one agent call: the role's text plus the
// structured side channel (tool trace, token cost).
type Verdict struct {
	Slug         string          `json:"slug"`
	Text         string          `json:"text"`
	ToolTrace    []ToolCall      `json:"tool_trace,omitempty"`
	Model        string          `json:"model"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	CostUSD      decimal.Decimal `json:"cost_usd"`
	Duration     time.Duration   `json:"duration"`
}
