package ai

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"minerva/pkg/errors"
)

// Ensure GeminiProvider implements ChatProvider
var _ ChatProvider = (*GeminiProvider)(nil)

// GeminiProvider implements chat completions via the Google GenAI SDK.
type GeminiProvider struct {
	client      *genai.Client
	timeout     time.Duration
	rateLimiter *RateLimiter
	models      []ModelInfo
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey string, timeout time.Duration, limiter *RateLimiter) (*GeminiProvider, error) {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	if limiter == nil {
		limiter = NewRateLimiter(ProviderNameGemini, 60, 6)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiProvider{
		client:      client,
		timeout:     timeout,
		rateLimiter: limiter,
		models:      geminiModels(),
	}, nil
}

// Name returns provider name.
func (p *GeminiProvider) Name() string { return string(ProviderNameGemini) }

// GetModel returns model info by name.
func (p *GeminiProvider) GetModel(_ context.Context, model string) (ModelInfo, error) {
	for _, m := range p.models {
		if strings.EqualFold(m.Name, model) {
			return m, nil
		}
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "gemini model %s not found", model)
}

// ListModels lists available models.
func (p *GeminiProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return p.models, nil
}

// Chat sends a generate-content request to the Gemini API.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{
			Provider: ProviderNameGemini,
			Limit:    p.rateLimiter.Limit(),
			Err:      err,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUpstreamCapability, err.Error())
	}

	text := resp.Text()
	if text == "" {
		return nil, errors.Wrap(errors.ErrUpstreamCapability, "gemini returned empty response")
	}

	usage := Usage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &ChatResponse{
		ID:      resp.ResponseID,
		Model:   req.Model,
		Content: text,
		Usage:   usage,
	}, nil
}

func geminiModels() []ModelInfo {
	return []ModelInfo{
		{
			Provider:        ProviderNameGemini,
			Name:            "gemini-2.0-flash",
			Family:          "gemini-2.0",
			MaxTokens:       1000000,
			InputCostPer1K:  0.0001,
			OutputCostPer1K: 0.0004,
		},
		{
			Provider:        ProviderNameGemini,
			Name:            "gemini-1.5-pro",
			Family:          "gemini-1.5",
			MaxTokens:       2000000,
			InputCostPer1K:  0.00125,
			OutputCostPer1K: 0.005,
		},
	}
}
