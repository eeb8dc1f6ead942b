package tools

// Definition describes a tool's metadata for registration and documentation.
// Role allow-lists in phase configuration refer to tools by these names.
type Definition struct {
	Name        string
	Description string
	Category    string
}

var toolDefinitions = []Definition{
	{Name: "get_stock_quote", Description: "Fetch latest quote with OHLC and volume", Category: "market_data"},
	{Name: "get_stock_history", Description: "Retrieve historical daily candles", Category: "market_data"},
	{Name: "get_stock_indicators", Description: "Compute common technical indicators", Category: "market_data"},

	{Name: "get_fundamentals", Description: "Company fundamentals and key ratios", Category: "fundamentals"},
	{Name: "get_financial_statements", Description: "Income statement, balance sheet, cash flow", Category: "fundamentals"},

	{Name: "get_stock_news", Description: "Latest news headlines for a symbol", Category: "news"},
	{Name: "get_market_news", Description: "Broad market and macro headlines", Category: "news"},

	{Name: "get_social_sentiment", Description: "Aggregate social media sentiment", Category: "sentiment"},
}

// Definitions returns all known tool definitions.
func Definitions() []Definition {
	out := make([]Definition, len(toolDefinitions))
	copy(out, toolDefinitions)
	return out
}

// DefinitionByName looks up a single tool definition.
func DefinitionByName(name string) (Definition, bool) {
	for _, def := range toolDefinitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
