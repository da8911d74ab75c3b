package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/aiox-platform/agentbrain/internal/memory"
)

// PostgresRepository implements Repository on agent.agent_knowledge_embeddings.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new knowledge repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func unavailable(op string, err error) error {
	return &memory.StoreError{Store: "postgres", Op: op, Err: err}
}

func (r *PostgresRepository) Search(ctx context.Context, application string, vec []float32, limit int) ([]Hit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(file_name, ''), COALESCE(application, ''), COALESCE(content, ''),
		        1 - (embedding <=> $1) AS score
		 FROM agent.agent_knowledge_embeddings
		 WHERE embedding IS NOT NULL AND ($2 = '' OR application = $2)
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vec), application, limit,
	)
	if err != nil {
		return nil, unavailable("search agent_knowledge_embeddings", err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.FileName, &h.Application, &h.Content, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning knowledge hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("search agent_knowledge_embeddings", err)
	}
	return hits, nil
}

func (r *PostgresRepository) KnownHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	known := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return known, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT content_hash FROM agent.agent_knowledge_embeddings WHERE content_hash = ANY($1)`,
		hashes,
	)
	if err != nil {
		return nil, unavailable("lookup content_hash", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scanning content hash: %w", err)
		}
		known[h] = true
	}
	return known, rows.Err()
}

func (r *PostgresRepository) Insert(ctx context.Context, c *Chunk) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO agent.agent_knowledge_embeddings (application, file_name, content, embedding, content_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (content_hash) DO NOTHING
		 RETURNING id`,
		c.Application, c.FileName, c.Content, pgvector.NewVector(c.Embedding), c.ContentHash,
	).Scan(&c.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, unavailable("insert agent_knowledge_embeddings", err)
	}
	return true, nil
}
