package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/agentbrain/internal/embedding"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// fakeEmbedder returns fixed vectors for known texts and a derived one
// otherwise. Every call costs one token per byte at 1 USD per million.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   []string
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (embedding.Result, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return embedding.Result{}, f.err
	}
	vec, ok := f.vectors[text]
	if !ok {
		vec = []float32{float32(1 + len(text)%5), float32(1 + int(text[0])%7), 1}
	}
	tokens := int64(len(text))
	return embedding.Result{Vector: vec, Usage: usage.FromTokens(tokens, 0, float64(tokens)/1_000_000)}, nil
}

func seedCorpus(t *testing.T) *ChromemRepository {
	t.Helper()
	repo, err := NewChromemRepository()
	require.NoError(t, err)

	docs := []Chunk{
		{Application: "user_manual", FileName: "turbina", Content: "pitch", Embedding: []float32{1, 0, 0}, ContentHash: "h1"},
		{Application: "user_manual", FileName: "turbina", Content: "yaw", Embedding: []float32{0.8, 0.6, 0}, ContentHash: "h2"},
		{Application: "faq", FileName: "geral", Content: "login", Embedding: []float32{0.9, 0, 0.1}, ContentHash: "h3"},
	}
	for i := range docs {
		ok, err := repo.Insert(context.Background(), &docs[i])
		require.NoError(t, err)
		require.True(t, ok)
	}
	return repo
}

func TestEngine_GetSimilar(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"como ajustar o pitch": {1, 0, 0}}}
	engine := NewEngine(emb, seedCorpus(t), "")

	hits, cost, err := engine.GetSimilar(context.Background(), "como ajustar o pitch", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "pitch", hits[0].Content)
	assert.Equal(t, "turbina", hits[0].FileName)
	assert.Equal(t, "user_manual", hits[0].Application)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, int64(len("como ajustar o pitch")), cost.TokensTotal)
}

func TestEngine_TopNLargerThanCorpus(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"q": {1, 0, 0}}}
	engine := NewEngine(emb, seedCorpus(t), "")

	hits, _, err := engine.GetSimilar(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestEngine_ApplicationPartition(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"q": {1, 0, 0}}}
	engine := NewEngine(emb, seedCorpus(t), "faq")

	hits, _, err := engine.GetSimilar(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "login", hits[0].Content)
}

func TestEngine_EmptyCorpusStillCharges(t *testing.T) {
	repo, err := NewChromemRepository()
	require.NoError(t, err)
	emb := &fakeEmbedder{}
	engine := NewEngine(emb, repo, "")

	hits, cost, err := engine.GetSimilar(context.Background(), "qualquer", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.False(t, cost.IsZero())
}

func TestEngine_ProviderError(t *testing.T) {
	repo, err := NewChromemRepository()
	require.NoError(t, err)
	emb := &fakeEmbedder{err: &embedding.ProviderError{Provider: "openai", Model: "m", Err: errors.New("429")}}

	_, _, err = NewEngine(emb, repo, "").GetSimilar(context.Background(), "q", 5)
	assert.ErrorIs(t, err, embedding.ErrProvider)
}

func TestJoinContent(t *testing.T) {
	assert.Equal(t, "a\n\nb", JoinContent([]Hit{{Content: "a"}, {Content: "b"}}))
	assert.Equal(t, "", JoinContent(nil))
}
