//go:build property

package usage

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genRecord() gopter.Gen {
	return gopter.CombineGens(
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(0, 1_000_000),
		gen.Float64Range(0, 100),
	).Map(func(v []interface{}) Record {
		return FromTokens(v[0].(int64), v[1].(int64), v[2].(float64))
	})
}

func closeEnough(a, b Record) bool {
	return a.TokensPrompt == b.TokensPrompt &&
		a.TokensCompletion == b.TokensCompletion &&
		a.TokensTotal == b.TokensTotal &&
		math.Abs(a.CostUSD-b.CostUSD) <= 1e-9
}

func TestMergeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("merge is commutative", prop.ForAll(
		func(a, b, c Record) bool {
			return closeEnough(Merge(a, b, c), Merge(c, a, b))
		},
		genRecord(), genRecord(), genRecord(),
	))

	properties.Property("merge is associative", prop.ForAll(
		func(a, b, c Record) bool {
			return closeEnough(Merge(Merge(a, b), c), Merge(a, Merge(b, c)))
		},
		genRecord(), genRecord(), genRecord(),
	))

	properties.Property("zero is the identity", prop.ForAll(
		func(r Record) bool {
			return Merge(r, Zero) == r && Merge(Zero, r) == r
		},
		genRecord(),
	))

	properties.Property("merged fields stay non-negative", prop.ForAll(
		func(recs []Record) bool {
			m := Merge(recs...)
			return m.CostUSD >= 0 && m.TokensPrompt >= 0 && m.TokensCompletion >= 0 && m.TokensTotal >= 0
		},
		gen.SliceOf(genRecord()),
	))

	properties.Property("total equals prompt plus completion", prop.ForAll(
		func(recs []Record) bool {
			m := Merge(recs...)
			return m.TokensTotal == m.TokensPrompt+m.TokensCompletion
		},
		gen.SliceOf(genRecord()),
	))

	properties.TestingRun(t)
}
