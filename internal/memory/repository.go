package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// PostgresRepository implements VectorRepository on agent.long_term_memory
// using pgx + pgvector.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new semantic memory repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, e *Entry) error {
	usageInfo, err := json.Marshal(e.Usage)
	if err != nil {
		return fmt.Errorf("marshaling usage info: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO agent.long_term_memory (user_id, session_id, agent_name, role, message, embedding, usage_info)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		e.UserID, e.SessionID, e.AgentName, string(e.Role), e.Message, pgvector.NewVector(e.Embedding), usageInfo,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return unavailable("postgres", "insert long_term_memory", err)
	}
	return nil
}

func (r *PostgresRepository) SearchByUser(ctx context.Context, userID string, vec []float32, limit int) ([]Hit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, role, message, 1 - (embedding <=> $1) AS score
		 FROM agent.long_term_memory
		 WHERE user_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vec), userID, limit,
	)
	if err != nil {
		return nil, unavailable("postgres", "search long_term_memory", err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		var role string
		if err := rows.Scan(&h.ID, &role, &h.Message, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		h.Role = Role(role)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("postgres", "search long_term_memory", err)
	}
	return hits, nil
}

// ListBySession returns a session's entries in insertion order.
func (r *PostgresRepository) ListBySession(ctx context.Context, userID, sessionID string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, agent_name, role, message, created_at, usage_info
		 FROM agent.long_term_memory
		 WHERE user_id = $1 AND session_id = $2
		 ORDER BY id`,
		userID, sessionID,
	)
	if err != nil {
		return nil, unavailable("postgres", "list long_term_memory", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role string
		var usageInfo []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &e.AgentName, &role, &e.Message, &e.CreatedAt, &usageInfo); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Role = Role(role)
		if len(usageInfo) > 0 {
			if err := json.Unmarshal(usageInfo, &e.Usage); err != nil {
				return nil, fmt.Errorf("decoding usage info for %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
