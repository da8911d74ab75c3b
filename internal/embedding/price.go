package embedding

// PriceTable maps a model name to its price in USD per million tokens.
type PriceTable map[string]float64

// DefaultPrices are the published OpenAI embedding prices.
func DefaultPrices() PriceTable {
	return PriceTable{
		"text-embedding-3-small": 0.02,
		"text-embedding-3-large": 0.13,
		"text-embedding-ada-002": 0.10,
	}
}

// Cost returns totalTokens/1e6 * price. Unknown models cost 0 and report
// known=false; they are never an error.
func (p PriceTable) Cost(model string, totalTokens int64) (cost float64, known bool) {
	price, ok := p[model]
	if !ok {
		return 0, false
	}
	return float64(totalTokens) / 1_000_000 * price, true
}

// With returns a copy of p with overrides applied.
func (p PriceTable) With(overrides map[string]float64) PriceTable {
	out := make(PriceTable, len(p)+len(overrides))
	for m, price := range p {
		out[m] = price
	}
	for m, price := range overrides {
		out[m] = price
	}
	return out
}
