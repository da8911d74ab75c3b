package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/aiox-platform/agentbrain/internal/memory"
)

const chromemCollection = "agent_knowledge"

// ChromemRepository is an in-process Repository backed by chromem-go.
type ChromemRepository struct {
	col *chromem.Collection

	mu     sync.Mutex
	hashes map[string]int64
	nextID int64
}

// NewChromemRepository creates an empty in-memory corpus.
func NewChromemRepository() (*ChromemRepository, error) {
	col, err := chromem.NewDB().CreateCollection(chromemCollection, nil, func(context.Context, string) ([]float32, error) {
		return nil, fmt.Errorf("chromem: embeddings must be precomputed")
	})
	if err != nil {
		return nil, fmt.Errorf("creating knowledge collection: %w", err)
	}
	return &ChromemRepository{col: col, hashes: make(map[string]int64)}, nil
}

func (r *ChromemRepository) Search(ctx context.Context, application string, vec []float32, limit int) ([]Hit, error) {
	n := min(limit, r.col.Count())
	if n <= 0 {
		return []Hit{}, nil
	}

	var where map[string]string
	if application != "" {
		where = map[string]string{"application": application}
	}
	results, err := r.col.QueryEmbedding(ctx, vec, n, where, nil)
	if err != nil {
		return nil, &memory.StoreError{Store: "chromem", Op: "query knowledge", Err: err}
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		id, err := strconv.ParseInt(res.ID, 10, 64)
		if err != nil {
			slog.Warn("knowledge: skipping chromem result with bad id", "id", res.ID, "error", err)
			continue
		}
		hits = append(hits, Hit{
			ID:          id,
			FileName:    res.Metadata["file_name"],
			Application: res.Metadata["application"],
			Content:     res.Content,
			Score:       float64(res.Similarity),
		})
	}
	return hits, nil
}

func (r *ChromemRepository) KnownHashes(_ context.Context, hashes []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		if _, ok := r.hashes[h]; ok {
			known[h] = true
		}
	}
	return known, nil
}

func (r *ChromemRepository) Insert(ctx context.Context, c *Chunk) (bool, error) {
	r.mu.Lock()
	if _, ok := r.hashes[c.ContentHash]; ok {
		r.mu.Unlock()
		return false, nil
	}
	r.nextID++
	c.ID = r.nextID
	r.hashes[c.ContentHash] = c.ID
	r.mu.Unlock()

	doc := chromem.Document{
		ID:        strconv.FormatInt(c.ID, 10),
		Content:   c.Content,
		Embedding: c.Embedding,
		Metadata: map[string]string{
			"application":  c.Application,
			"file_name":    c.FileName,
			"content_hash": c.ContentHash,
		},
	}
	if err := r.col.AddDocument(ctx, doc); err != nil {
		r.mu.Lock()
		delete(r.hashes, c.ContentHash)
		r.mu.Unlock()
		return false, &memory.StoreError{Store: "chromem", Op: "add knowledge", Err: err}
	}
	return true, nil
}
