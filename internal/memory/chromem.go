package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/aiox-platform/agentbrain/internal/metrics"
)

// ChromemRepository is an in-process VectorRepository backed by chromem-go.
// Each user gets a collection of their own.
type ChromemRepository struct {
	db     *chromem.DB
	nextID atomic.Int64
}

// NewChromemRepository creates an empty in-memory repository.
func NewChromemRepository() *ChromemRepository {
	return &ChromemRepository{db: chromem.NewDB()}
}

func (r *ChromemRepository) collection(userID string) (*chromem.Collection, error) {
	col, err := r.db.GetOrCreateCollection("ltm_"+userID, nil, noEmbed)
	if err != nil {
		return nil, unavailable("chromem", "collection "+userID, err)
	}
	return col, nil
}

// noEmbed stops chromem from calling a remote embedder; vectors are always
// supplied by the caller.
func noEmbed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("chromem: embeddings must be precomputed")
}

func (r *ChromemRepository) Insert(ctx context.Context, e *Entry) error {
	col, err := r.collection(e.UserID)
	if err != nil {
		return err
	}

	usageInfo, err := json.Marshal(e.Usage)
	if err != nil {
		return fmt.Errorf("marshaling usage info: %w", err)
	}

	e.ID = r.nextID.Add(1)
	e.CreatedAt = time.Now().UTC()
	doc := chromem.Document{
		ID:        strconv.FormatInt(e.ID, 10),
		Content:   e.Message,
		Embedding: e.Embedding,
		Metadata: map[string]string{
			"session_id": e.SessionID,
			"agent_name": e.AgentName,
			"role":       string(e.Role),
			"created_at": e.CreatedAt.Format(time.RFC3339Nano),
			"usage_info": string(usageInfo),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return unavailable("chromem", "add document", err)
	}
	return nil
}

func (r *ChromemRepository) SearchByUser(ctx context.Context, userID string, vec []float32, limit int) ([]Hit, error) {
	col, err := r.collection(userID)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	n := min(limit, col.Count())
	if n <= 0 {
		return []Hit{}, nil
	}

	results, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, unavailable("chromem", "query", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		id, err := strconv.ParseInt(res.ID, 10, 64)
		if err != nil {
			metrics.MemoryCorruptedEntries.WithLabelValues(KindSemantic.String()).Inc()
			slog.Warn("memory: skipping chromem result with bad id", "id", res.ID, "error", err)
			continue
		}
		hits = append(hits, Hit{
			ID:      id,
			Role:    Role(res.Metadata["role"]),
			Message: res.Content,
			Score:   float64(res.Similarity),
		})
	}
	return hits, nil
}
