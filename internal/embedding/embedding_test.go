package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/agentbrain/internal/config"
)

type fakeProvider struct {
	vec    []float32
	tokens int64
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Embed(_ context.Context, _ string, _ string, _ int) ([]float32, int64, error) {
	f.calls++
	return f.vec, f.tokens, f.err
}

func TestClient_EmbedComputesCost(t *testing.T) {
	p := &fakeProvider{vec: []float32{1, 0, 0}, tokens: 500_000}
	c := NewClient(p, "text-embedding-3-small", 3, DefaultPrices())

	res, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, res.Vector)
	assert.Equal(t, int64(500_000), res.Usage.TokensPrompt)
	assert.Equal(t, int64(0), res.Usage.TokensCompletion)
	assert.Equal(t, int64(500_000), res.Usage.TokensTotal)
	assert.InDelta(t, 0.01, res.Usage.CostUSD, 1e-12)
	assert.Equal(t, 1, p.calls)
}

func TestClient_UnknownModelCostsZero(t *testing.T) {
	p := &fakeProvider{vec: []float32{1, 2}, tokens: 1234}
	c := NewClient(p, "some-future-model", 2, DefaultPrices())

	res, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Usage.CostUSD)
	assert.Equal(t, int64(1234), res.Usage.TokensTotal)
}

func TestClient_ProviderErrorNoRetry(t *testing.T) {
	p := &fakeProvider{err: errors.New("rate limited")}
	c := NewClient(p, "text-embedding-3-small", 3, DefaultPrices())

	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "fake", pe.Provider)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 1, p.calls)
}

func TestClient_DimensionMismatch(t *testing.T) {
	p := &fakeProvider{vec: []float32{1, 2}, tokens: 3}
	c := NewClient(p, "text-embedding-3-small", 1536, DefaultPrices())

	_, err := c.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestPriceTable_Cost(t *testing.T) {
	prices := DefaultPrices()

	tests := []struct {
		model  string
		tokens int64
		cost   float64
		known  bool
	}{
		{"text-embedding-3-small", 1_000_000, 0.02, true},
		{"text-embedding-3-large", 2_000_000, 0.26, true},
		{"text-embedding-ada-002", 0, 0, true},
		{"unknown", 1_000_000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			cost, known := prices.Cost(tt.model, tt.tokens)
			assert.Equal(t, tt.known, known)
			assert.InDelta(t, tt.cost, cost, 1e-12)
		})
	}
}

func TestPriceTable_With(t *testing.T) {
	base := DefaultPrices()
	p := base.With(map[string]float64{"text-embedding-3-small": 0.05, "custom": 1})

	assert.Equal(t, 0.05, p["text-embedding-3-small"])
	assert.Equal(t, 1.0, p["custom"])
	assert.Equal(t, 0.13, p["text-embedding-3-large"])
	assert.Equal(t, 0.02, base["text-embedding-3-small"])
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), "", config.ProvidersConfig{OpenAIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider(context.Background(), "cohere", config.ProvidersConfig{})
	assert.Error(t, err)
}
