package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/adapters/ai"
	"minerva/internal/modes"
	"minerva/internal/tools"
	"minerva/pkg/errors"
)

// fakeProvider implements ai.ChatProvider for testing
type fakeProvider struct {
	name     string
	chatFunc func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
	lastReq  *ai.ChatRequest
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) GetModel(_ context.Context, model string) (ai.ModelInfo, error) {
	return ai.ModelInfo{
		Provider:        ai.ProviderName(p.name),
		Name:            model,
		InputCostPer1K:  0.001,
		OutputCostPer1K: 0.002,
	}, nil
}

func (p *fakeProvider) ListModels(_ context.Context) ([]ai.ModelInfo, error) {
	return nil, nil
}

func (p *fakeProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.lastReq = &req
	if p.chatFunc != nil {
		return p.chatFunc(ctx, req)
	}
	return &ai.ChatResponse{
		ID:      "resp-1",
		Model:   req.Model,
		Content: "the verdict",
		Usage:   ai.Usage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500},
	}, nil
}

func newTestInvoker(t *testing.T, provider *fakeProvider, toolReg *tools.Registry) *Invoker {
	t.Helper()
	registry := ai.NewProviderRegistry()
	require.NoError(t, registry.Register(provider))
	if toolReg == nil {
		toolReg = tools.NewRegistry()
	}
	return NewInvoker(registry, toolReg, NewCostTracker(), provider.name, "test-model")
}

func analystRole(toolAllowList ...string) modes.AgentRoleConfig {
	return modes.AgentRoleConfig{
		Slug:           "market-analyst",
		Name:           "Market Analyst",
		RoleDefinition: "You are a market analyst.",
		Tools:          toolAllowList,
	}
}

func TestInvoker_ReturnsVerdictWithCost(t *testing.T) {
	provider := &fakeProvider{name: "openai"}
	inv := newTestInvoker(t, provider, nil)

	verdict, err := inv.Invoke(context.Background(), Invocation{
		Role:   analystRole(),
		Symbol: "AAPL",
		AsOf:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "market-analyst", verdict.Slug)
	assert.Equal(t, "the verdict", verdict.Text)
	assert.Equal(t, "test-model", verdict.Model)
	assert.Equal(t, 1000, verdict.InputTokens)
	assert.Equal(t, 500, verdict.OutputTokens)
	// 1000 in * $0.001/1K + 500 out * $0.002/1K
	assert.Equal(t, "0.002", verdict.CostUSD.String())

	// The system prompt is the role definition, the user turn carries the
	// rendered task
	require.NotNil(t, provider.lastReq)
	assert.Equal(t, "You are a market analyst.", provider.lastReq.System)
	require.Len(t, provider.lastReq.Messages, 1)
	assert.Contains(t, provider.lastReq.Messages[0].Content, "AAPL")
	assert.Contains(t, provider.lastReq.Messages[0].Content, "2025-06-02")
}

func TestInvoker_MissingRoleDefinitionIsConfigurationError(t *testing.T) {
	inv := newTestInvoker(t, &fakeProvider{name: "openai"}, nil)

	role := analystRole()
	role.RoleDefinition = ""
	_, err := inv.Invoke(context.Background(), Invocation{Role: role, Symbol: "AAPL"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestInvoker_UnknownProviderIsConfigurationError(t *testing.T) {
	inv := newTestInvoker(t, &fakeProvider{name: "openai"}, nil)

	_, err := inv.Invoke(context.Background(), Invocation{
		Role:     analystRole(),
		Symbol:   "AAPL",
		Provider: "no-such-provider",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestInvoker_UpstreamFailurePropagates(t *testing.T) {
	provider := &fakeProvider{
		name: "openai",
		chatFunc: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			return nil, errors.Wrap(errors.ErrUpstreamCapability, "model overloaded")
		},
	}
	inv := newTestInvoker(t, provider, nil)

	_, err := inv.Invoke(context.Background(), Invocation{Role: analystRole(), Symbol: "AAPL"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUpstreamCapability))
}

func TestInvoker_EmptyAllowListPermitsAnyTool(t *testing.T) {
	toolReg := tools.NewRegistry()
	toolReg.Register("get_stock_quote", tools.New("get_stock_quote", "latest quote", func(ctx context.Context, args tools.Args) (interface{}, error) {
		return map[string]interface{}{"symbol": args.Symbol, "price": 123.45}, nil
	}))

	provider := &fakeProvider{name: "openai"}
	inv := newTestInvoker(t, provider, toolReg)

	verdict, err := inv.Invoke(context.Background(), Invocation{
		Role:   analystRole(), // no allow-list configured
		Symbol: "AAPL",
		Tools:  []string{"get_stock_quote"},
	})
	require.NoError(t, err)

	require.Len(t, verdict.ToolTrace, 1)
	assert.Equal(t, "get_stock_quote", verdict.ToolTrace[0].Name)
	assert.Empty(t, verdict.ToolTrace[0].Err)
	assert.Contains(t, provider.lastReq.Messages[0].Content, "123.45")
}

func TestInvoker_ToolOutsideAllowListIsScopeViolation(t *testing.T) {
	toolReg := tools.NewRegistry()
	toolReg.Register("get_social_sentiment", tools.New("get_social_sentiment", "sentiment", func(ctx context.Context, args tools.Args) (interface{}, error) {
		return "bullish", nil
	}))

	inv := newTestInvoker(t, &fakeProvider{name: "openai"}, toolReg)

	_, err := inv.Invoke(context.Background(), Invocation{
		Role:   analystRole("get_stock_quote"), // sentiment not in the allow-list
		Symbol: "AAPL",
		Tools:  []string{"get_social_sentiment"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolScopeViolation))
}

func TestInvoker_UnregisteredToolIsConfigurationError(t *testing.T) {
	inv := newTestInvoker(t, &fakeProvider{name: "openai"}, nil)

	_, err := inv.Invoke(context.Background(), Invocation{
		Role:   analystRole(),
		Symbol: "AAPL",
		Tools:  []string{"no_such_tool"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestInvoker_ToolFailureIsUpstreamErrorWithTrace(t *testing.T) {
	toolReg := tools.NewRegistry()
	toolReg.Register("get_stock_quote", tools.New("get_stock_quote", "latest quote", func(ctx context.Context, args tools.Args) (interface{}, error) {
		return nil, errors.New("data source down")
	}))

	inv := newTestInvoker(t, &fakeProvider{name: "openai"}, toolReg)

	_, err := inv.Invoke(context.Background(), Invocation{
		Role:   analystRole(),
		Symbol: "AAPL",
		Tools:  []string{"get_stock_quote"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUpstreamCapability))
}

func TestInvoker_UpstreamContextReachesPrompt(t *testing.T) {
	provider := &fakeProvider{name: "openai"}
	inv := newTestInvoker(t, provider, nil)

	_, err := inv.Invoke(context.Background(), Invocation{
		Role:     analystRole(),
		Symbol:   "AAPL",
		Upstream: "## Analyst Team\n\nprior findings",
	})
	require.NoError(t, err)
	assert.Contains(t, provider.lastReq.Messages[0].Content, "prior findings")
}

func TestRenderTask(t *testing.T) {
	asOf := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	out := RenderTask("Analyze {symbol} as of {as_of}.", "TSLA", asOf)
	assert.Equal(t, "Analyze TSLA as of 2025-06-02.", out)
}
