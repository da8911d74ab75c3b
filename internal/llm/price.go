package llm

// ChatPrice is the USD price per million input and output tokens.
type ChatPrice struct {
	Input  float64 `yaml:"input" json:"input"`
	Output float64 `yaml:"output" json:"output"`
}

// PriceTable maps a chat model to its price.
type PriceTable map[string]ChatPrice

// DefaultPrices covers the models the agent file ships with.
func DefaultPrices() PriceTable {
	return PriceTable{
		"gpt-4o-mini":      {Input: 0.15, Output: 0.60},
		"gpt-4o":           {Input: 2.50, Output: 10.00},
		"gpt-4.1-mini":     {Input: 0.40, Output: 1.60},
		"gpt-4.1-nano":     {Input: 0.10, Output: 0.40},
		"claude-haiku-4-5": {Input: 1.00, Output: 5.00},
		"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
	}
}

// Cost prices a call. Unknown models cost 0.
func (p PriceTable) Cost(model string, prompt, completion int64) float64 {
	price, ok := p[model]
	if !ok {
		return 0
	}
	return float64(prompt)/1_000_000*price.Input + float64(completion)/1_000_000*price.Output
}

// With returns a copy of p with overrides applied.
func (p PriceTable) With(overrides map[string]ChatPrice) PriceTable {
	out := make(PriceTable, len(p)+len(overrides))
	for m, price := range p {
		out[m] = price
	}
	for m, price := range overrides {
		out[m] = price
	}
	return out
}
