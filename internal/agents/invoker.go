package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"minerva/internal/adapters/ai"
	"minerva/internal/metrics"
	"minerva/internal/tools"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// Invoker performs one LLM call per agent role. It renders the role prompt,
// executes the requested data tools under the role's allow-list, and returns
// the verdict with full telemetry. It never retries: transient upstream
// failures propagate so the orchestration core stays deterministic.
type Invoker struct {
	providers *ai.ProviderRegistry
	tools     *tools.Registry
	costs     *CostTracker

	defaultProvider string
	defaultModel    string

	log *logger.Logger
}

// NewInvoker builds an invoker over the provider registry and tool registry.
func NewInvoker(providers *ai.ProviderRegistry, toolReg *tools.Registry, costs *CostTracker, defaultProvider, defaultModel string) *Invoker {
	return &Invoker{
		providers:       providers,
		tools:           toolReg,
		costs:           costs,
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
		log:             logger.Get().With("component", "agent_invoker"),
	}
}

// Invoke runs one agent call.
func (inv *Invoker) Invoke(ctx context.Context, call Invocation) (*Verdict, error) {
	start := time.Now()

	role := call.Role
	if role.RoleDefinition == "" {
		return nil, errors.Wrapf(errors.ErrConfiguration, "role %q has no role definition", role.Slug)
	}

	providerName := call.Provider
	if providerName == "" {
		providerName = inv.defaultProvider
	}
	model := call.Model
	if model == "" {
		model = inv.defaultModel
	}

	provider, err := inv.providers.Get(providerName)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "role %q: %v", role.Slug, err)
	}
	modelInfo, err := provider.GetModel(ctx, model)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "role %q: %v", role.Slug, err)
	}

	trace, toolContext, err := inv.runTools(ctx, call)
	if err != nil {
		metrics.AgentCalls.WithLabelValues(role.Slug, model, "error").Inc()
		return nil, err
	}

	req := ai.ChatRequest{
		Model:       model,
		System:      role.RoleDefinition,
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: inv.renderUserMessage(call, toolContext)},
		},
	}

	resp, err := provider.Chat(ctx, req)
	if err != nil {
		metrics.AgentCalls.WithLabelValues(role.Slug, model, "error").Inc()
		return nil, errors.Wrapf(err, "agent %q", role.Slug)
	}

	cost := inv.costs.RecordUsage(modelInfo, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	duration := time.Since(start)

	metrics.AgentCalls.WithLabelValues(role.Slug, model, "success").Inc()
	metrics.AgentLatency.WithLabelValues(role.Slug, model).Observe(duration.Seconds())
	costValue, _ := cost.Float64()
	metrics.AgentCost.WithLabelValues(role.Slug, model).Add(costValue)

	inv.log.Infof("Agent %s completed (model: %s, duration: %v, tokens: %d, cost: $%s)",
		role.Slug, model, duration, resp.Usage.TotalTokens, cost.StringFixed(4))

	return &Verdict{
		Slug:         role.Slug,
		Text:         resp.Content,
		ToolTrace:    trace,
		Model:        model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		CostUSD:      cost,
		Duration:     duration,
	}, nil
}

// runTools executes the invocation's data tools under the role's allow-list
// and renders their results into a prompt section.
func (inv *Invoker) runTools(ctx context.Context, call Invocation) ([]ToolCall, string, error) {
	if len(call.Tools) == 0 {
		return nil, "", nil
	}

	var sb strings.Builder
	trace := make([]ToolCall, 0, len(call.Tools))

	args := tools.Args{Symbol: call.Symbol, AsOf: call.AsOf.Format("2006-01-02")}

	for _, name := range call.Tools {
		if !call.Role.AllowsTool(name) {
			return trace, "", errors.Wrapf(errors.ErrToolScopeViolation,
				"role %q requested tool %q", call.Role.Slug, name)
		}

		tool, ok := inv.tools.Get(name)
		if !ok {
			return trace, "", errors.Wrapf(errors.ErrConfiguration, "tool %q not registered", name)
		}

		toolStart := time.Now()
		result, err := tool.Execute(ctx, args)
		tc := ToolCall{Name: name, Duration: time.Since(toolStart)}
		if err != nil {
			tc.Err = err.Error()
			trace = append(trace, tc)
			return trace, "", errors.Wrapf(errors.ErrUpstreamCapability,
				"tool %q for role %q: %v", name, call.Role.Slug, err)
		}

		rendered, err := json.Marshal(result)
		if err != nil {
			rendered = []byte(fmt.Sprintf("%v", result))
		}
		tc.ResultSize = len(rendered)
		trace = append(trace, tc)

		sb.WriteString(fmt.Sprintf("### %s\n%s\n\n", name, rendered))
	}

	return trace, sb.String(), nil
}

// renderUserMessage assembles the task, upstream context, and tool data into
// the single user turn the model sees.
func (inv *Invoker) renderUserMessage(call Invocation, toolContext string) string {
	task := call.Task
	if task == "" {
		task = call.Role.InitialTask
	}
	if task == "" {
		task = "Analyze {symbol} as of {as_of} from your role's perspective."
	}
	task = RenderTask(task, call.Symbol, call.AsOf)

	var sb strings.Builder
	sb.WriteString(task)

	if call.Upstream != "" {
		sb.WriteString("\n\n## Upstream context\n\n")
		sb.WriteString(call.Upstream)
	}
	if toolContext != "" {
		sb.WriteString("\n\n## Market data\n\n")
		sb.WriteString(toolContext)
	}

	return sb.String()
}

// RenderTask substitutes the {symbol} and {as_of} placeholders an
// initial-task template may carry.
func RenderTask(template, symbol string, asOf time.Time) string {
	return strings.NewReplacer(
		"{symbol}", symbol,
		"{as_of}", asOf.Format("2006-01-02"),
	).Replace(template)
}
