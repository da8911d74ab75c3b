package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aiox-platform/agentbrain/internal/usage"
)

// Repository handles agent.turn_ledger PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ledger Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists an entry. Redelivered events with a known ID are ignored.
func (r *Repository) Insert(ctx context.Context, e *Entry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO agent.turn_ledger
		   (id, user_id, session_id, client_hash, intent, denied,
		    tokens_prompt, tokens_completion, tokens_total, cost_usd, duration_ms, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.UserID, e.SessionID, e.ClientHash, e.Intent, e.Denied,
		e.Usage.TokensPrompt, e.Usage.TokensCompletion, e.Usage.TokensTotal, e.Usage.CostUSD,
		e.DurationMS, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}
	return nil
}

// TotalsByUser sums the usage of a user's turns since the given time.
func (r *Repository) TotalsByUser(ctx context.Context, userID string, since time.Time) (usage.Record, int64, error) {
	var (
		total usage.Record
		turns int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(tokens_prompt), 0),
		        COALESCE(SUM(tokens_completion), 0),
		        COALESCE(SUM(tokens_total), 0),
		        COALESCE(SUM(cost_usd), 0)
		 FROM agent.turn_ledger
		 WHERE user_id = $1 AND occurred_at >= $2`,
		userID, since).Scan(&turns, &total.TokensPrompt, &total.TokensCompletion, &total.TokensTotal, &total.CostUSD)
	if err != nil {
		return usage.Zero, 0, fmt.Errorf("summing ledger for %s: %w", userID, err)
	}
	return total, turns, nil
}
