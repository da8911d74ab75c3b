package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aiox-platform/agentbrain/internal/embedding"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// DefaultRecallK is how many semantic entries an agent recalls by default.
const DefaultRecallK = 3

// Embedder turns text into a priced vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (embedding.Result, error)
}

// Entry is a persisted semantic memory row.
type Entry struct {
	ID        int64
	UserID    string
	SessionID string
	AgentName string
	Role      Role
	Message   string
	Embedding []float32
	CreatedAt time.Time
	Usage     usage.Record
}

// Hit is a semantic search result.
type Hit struct {
	ID      int64   `json:"id"`
	Role    Role    `json:"role"`
	Message string  `json:"message"`
	Score   float64 `json:"score"`
}

// VectorRepository persists entries and answers cosine nearest-neighbour
// queries scoped to one user. Hits come back with descending score.
type VectorRepository interface {
	Insert(ctx context.Context, e *Entry) error
	SearchByUser(ctx context.Context, userID string, vec []float32, limit int) ([]Hit, error)
}

// Semantic is the durable, vector-indexed memory tier.
type Semantic struct {
	embedder Embedder
	repo     VectorRepository
	recallK  int
}

// NewSemantic creates a semantic store that recalls recallK entries per query.
func NewSemantic(embedder Embedder, repo VectorRepository, recallK int) *Semantic {
	if recallK <= 0 {
		recallK = DefaultRecallK
	}
	return &Semantic{embedder: embedder, repo: repo, recallK: recallK}
}

// AppendRequest describes a message to index.
type AppendRequest struct {
	Session   Session
	AgentName string
	Role      Role
	Message   string
	// Precomputed is the usage already spent producing Message.
	Precomputed usage.Record
}

// Append embeds the message, merges the embedding cost into the precomputed
// cost, persists the entry with the merged usage and returns it.
func (s *Semantic) Append(ctx context.Context, req AppendRequest) (usage.Record, error) {
	merged, _, err := s.store(ctx, req)
	return merged, err
}

// store persists req and returns both the merged usage and the indexing
// cost alone.
func (s *Semantic) store(ctx context.Context, req AppendRequest) (usage.Record, usage.Record, error) {
	if err := req.Session.validate(); err != nil {
		return usage.Zero, usage.Zero, err
	}
	if !req.Role.Valid() {
		return usage.Zero, usage.Zero, &ValidationError{Field: "role", Reason: fmt.Sprintf("%q is not one of user, assistant", req.Role)}
	}

	emb, err := s.embedder.Embed(ctx, req.Message)
	if err != nil {
		return usage.Zero, usage.Zero, fmt.Errorf("embedding %s message: %w", req.Role, err)
	}

	merged := usage.Merge(req.Precomputed, emb.Usage)
	entry := &Entry{
		UserID:    req.Session.UserID,
		SessionID: req.Session.SessionID,
		AgentName: req.AgentName,
		Role:      req.Role,
		Message:   req.Message,
		Embedding: emb.Vector,
		Usage:     merged,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return usage.Zero, usage.Zero, err
	}

	slog.Debug("memory: semantic entry stored",
		"id", entry.ID,
		"user_id", entry.UserID,
		"role", entry.Role,
		"embedding_cost_usd", emb.Usage.CostUSD,
	)
	return merged, emb.Usage, nil
}

// Search embeds query and returns the topN entries of userID closest to it.
// The embedding's usage is returned with the hits.
func (s *Semantic) Search(ctx context.Context, userID, query string, topN int) ([]Hit, usage.Record, error) {
	if userID == "" {
		return nil, usage.Zero, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, usage.Zero, fmt.Errorf("embedding query: %w", err)
	}
	if topN <= 0 {
		return []Hit{}, emb.Usage, nil
	}

	hits, err := s.repo.SearchByUser(ctx, userID, emb.Vector, topN)
	if err != nil {
		return nil, emb.Usage, err
	}
	return hits, emb.Usage, nil
}

func (s *Semantic) Kind() Kind { return KindSemantic }

// Record stores the turn with its usage merged in and returns the
// embedding cost of indexing it.
func (s *Semantic) Record(ctx context.Context, turn Turn) (usage.Record, error) {
	_, indexing, err := s.store(ctx, AppendRequest{
		Session:     turn.Session,
		AgentName:   turn.AgentName,
		Role:        turn.Role,
		Message:     turn.Content,
		Precomputed: turn.Usage,
	})
	return indexing, err
}

// Recall searches the user's whole history, not just the current session.
func (s *Semantic) Recall(ctx context.Context, session Session, query string) ([]Line, usage.Record, error) {
	hits, cost, err := s.Search(ctx, session.UserID, query, s.recallK)
	if err != nil {
		return nil, cost, err
	}
	lines := make([]Line, 0, len(hits))
	for _, h := range hits {
		lines = append(lines, Line{Role: h.Role, Content: h.Message, Score: h.Score})
	}
	return lines, cost, nil
}
