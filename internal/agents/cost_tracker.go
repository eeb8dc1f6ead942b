package agents

import (
	"sync"

	"github.com/shopspring/decimal"

	"minerva/internal/adapters/ai"
)

// CostTracker tallies AI model usage per model across a process lifetime.
type CostTracker struct {
	mu    sync.RWMutex
	costs map[string]*ModelCost // model name -> cost data
}

// ModelCost tracks usage for a specific model
type ModelCost struct {
	ModelID      string
	InputTokens  int64
	OutputTokens int64
	TotalCostUSD decimal.Decimal
	CallCount    int64
}

// NewCostTracker creates a new cost tracker
func NewCostTracker() *CostTracker {
	return &CostTracker{
		costs: make(map[string]*ModelCost),
	}
}

// RecordUsage records token usage for a model and returns the cost of this
// single call.
func (ct *CostTracker) RecordUsage(modelInfo ai.ModelInfo, inputTokens, outputTokens int) decimal.Decimal {
	cost := CalculateCost(modelInfo, inputTokens, outputTokens)

	ct.mu.Lock()
	defer ct.mu.Unlock()

	mc, exists := ct.costs[modelInfo.Name]
	if !exists {
		mc = &ModelCost{ModelID: modelInfo.Name}
		ct.costs[modelInfo.Name] = mc
	}

	mc.InputTokens += int64(inputTokens)
	mc.OutputTokens += int64(outputTokens)
	mc.TotalCostUSD = mc.TotalCostUSD.Add(cost)
	mc.CallCount++

	return cost
}

// GetCost returns cost data for a specific model
func (ct *CostTracker) GetCost(modelID string) (ModelCost, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	mc, ok := ct.costs[modelID]
	if !ok {
		return ModelCost{}, false
	}
	return *mc, true
}

// TotalCost returns the total cost across all models
func (ct *CostTracker) TotalCost() decimal.Decimal {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	total := decimal.Zero
	for _, mc := range ct.costs {
		total = total.Add(mc.TotalCostUSD)
	}

	return total
}

// Reset clears all cost data
func (ct *CostTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.costs = make(map[string]*ModelCost)
}

// CalculateCost prices a single call's token usage against the model's
// per-1K rates.
func CalculateCost(modelInfo ai.ModelInfo, inputTokens, outputTokens int) decimal.Decimal {
	inputCost := decimal.NewFromInt(int64(inputTokens)).
		Div(decimal.NewFromInt(1000)).
		Mul(decimal.NewFromFloat(modelInfo.InputCostPer1K))
	outputCost := decimal.NewFromInt(int64(outputTokens)).
		Div(decimal.NewFromInt(1000)).
		Mul(decimal.NewFromFloat(modelInfo.OutputCostPer1K))
	return inputCost.Add(outputCost)
}
