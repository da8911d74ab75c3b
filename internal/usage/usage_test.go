package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_SumsFieldWise(t *testing.T) {
	a := Record{TokensPrompt: 10, TokensCompletion: 5, TokensTotal: 15, CostUSD: 0.001}
	b := Record{TokensPrompt: 3, TokensCompletion: 0, TokensTotal: 3, CostUSD: 0.0002}

	got := Merge(a, b)
	assert.Equal(t, int64(13), got.TokensPrompt)
	assert.Equal(t, int64(5), got.TokensCompletion)
	assert.Equal(t, int64(18), got.TokensTotal)
	assert.InDelta(t, 0.0012, got.CostUSD, 1e-12)
}

func TestMerge_Empty(t *testing.T) {
	assert.Equal(t, Zero, Merge())
	assert.True(t, Merge().IsZero())
}

func TestMerge_ZeroIdentity(t *testing.T) {
	r := Record{TokensPrompt: 7, TokensCompletion: 2, TokensTotal: 9, CostUSD: 0.5}
	assert.Equal(t, r, Merge(r, Zero))
	assert.Equal(t, r, Merge(Zero, r))
}

func TestMerge_OrderIndependentForTokens(t *testing.T) {
	a := FromTokens(1, 2, 0.25)
	b := FromTokens(30, 4, 0.5)
	c := FromTokens(500, 60, 0.125)
	assert.Equal(t, Merge(a, b, c), Merge(c, a, b))
}

func TestFromTokens(t *testing.T) {
	r := FromTokens(100, 20, 0.01)
	assert.Equal(t, int64(120), r.TokensTotal)
	assert.Equal(t, 0.01, r.CostUSD)
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator
	acc.Add("guardrail", FromTokens(10, 1, 0.1))
	acc.Add("record_user", FromTokens(4, 0, 0.01))
	acc.Add("record_user", FromTokens(2, 0, 0.02))

	assert.Equal(t, []string{"guardrail", "record_user", "record_user"}, acc.Stages())
	assert.Equal(t, int64(6), acc.Stage("record_user").TokensPrompt)
	assert.Equal(t, Zero, acc.Stage("rewrite"))

	total := acc.Total()
	assert.Equal(t, int64(17), total.TokensTotal)
	assert.InDelta(t, 0.13, total.CostUSD, 1e-12)
}
