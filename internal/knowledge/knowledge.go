package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/aiox-platform/agentbrain/internal/memory"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// DefaultTopN is how many chunks a retrieval returns by default.
const DefaultTopN = 5

// Chunk is one indexed piece of a knowledge document.
type Chunk struct {
	ID          int64
	Application string
	FileName    string
	Content     string
	Embedding   []float32
	ContentHash string
}

// Hit is a retrieval result.
type Hit struct {
	ID          int64   `json:"id"`
	FileName    string  `json:"file_name"`
	Application string  `json:"application"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
}

// Repository stores chunks and answers cosine nearest-neighbour queries.
// An empty application searches the whole corpus.
type Repository interface {
	Search(ctx context.Context, application string, vec []float32, limit int) ([]Hit, error)
	KnownHashes(ctx context.Context, hashes []string) (map[string]bool, error)
	// Insert stores c unless its content hash already exists and reports
	// whether a row was written.
	Insert(ctx context.Context, c *Chunk) (bool, error)
}

// Engine is the retrieval half of RAG over the shared knowledge corpus.
type Engine struct {
	embedder    memory.Embedder
	repo        Repository
	application string
}

// NewEngine creates a search engine. A non-empty application restricts
// every search to that partition.
func NewEngine(embedder memory.Embedder, repo Repository, application string) *Engine {
	return &Engine{embedder: embedder, repo: repo, application: application}
}

// GetSimilar embeds query and returns the topN closest chunks, best first,
// together with the query embedding's usage.
func (e *Engine) GetSimilar(ctx context.Context, query string, topN int) ([]Hit, usage.Record, error) {
	emb, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, usage.Zero, fmt.Errorf("embedding knowledge query: %w", err)
	}
	if topN <= 0 {
		return []Hit{}, emb.Usage, nil
	}

	hits, err := e.repo.Search(ctx, e.application, emb.Vector, topN)
	if err != nil {
		return nil, emb.Usage, err
	}
	return hits, emb.Usage, nil
}

// JoinContent concatenates hit contents into one context block.
func JoinContent(hits []Hit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Content)
	}
	return strings.Join(parts, "\n\n")
}
