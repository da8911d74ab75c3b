package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aiox-platform/agentbrain/internal/metrics"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// DefaultTTL is the idle window after which a session's history expires.
const DefaultTTL = 600 * time.Second

// Message is a single entry in a session's history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Ephemeral keeps per-session history in Redis lists. Every append re-arms
// the key's TTL. Nothing is trimmed on write; reads return the tail window.
type Ephemeral struct {
	client redis.Cmdable
	window int
	ttl    time.Duration
	now    func() time.Time
}

// NewEphemeral creates an ephemeral store that reads at most window entries
// and expires idle sessions after ttl.
func NewEphemeral(client redis.Cmdable, window int, ttl time.Duration) *Ephemeral {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ephemeral{
		client: client,
		window: window,
		ttl:    ttl,
		now:    time.Now,
	}
}

func sessionKey(s Session) string {
	return fmt.Sprintf("user:%s:session:%s", s.UserID, s.SessionID)
}

// Append pushes a message to the tail of the session log and resets the TTL.
func (e *Ephemeral) Append(ctx context.Context, session Session, role Role, content string) error {
	if err := session.validate(); err != nil {
		return err
	}
	if !role.Valid() {
		return &ValidationError{Field: "role", Reason: fmt.Sprintf("%q is not one of user, assistant", role)}
	}

	data, err := json.Marshal(Message{Role: role, Content: content, Timestamp: e.now()})
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	key := sessionKey(session)
	pipe := e.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, e.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("redis", "append "+key, err)
	}
	return nil
}

// Read returns at most limit of the most recent messages, oldest first.
// Entries that fail to decode are skipped and counted.
func (e *Ephemeral) Read(ctx context.Context, session Session, limit int) ([]Message, error) {
	if err := session.validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Message{}, nil
	}

	key := sessionKey(session)
	vals, err := e.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, unavailable("redis", "lrange "+key, err)
	}

	msgs := make([]Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			metrics.MemoryCorruptedEntries.WithLabelValues(KindEphemeral.String()).Inc()
			slog.Warn("memory: skipping corrupted entry", "key", key, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (e *Ephemeral) Kind() Kind { return KindEphemeral }

// Record appends the turn. Ephemeral storage costs nothing.
func (e *Ephemeral) Record(ctx context.Context, turn Turn) (usage.Record, error) {
	if err := e.Append(ctx, turn.Session, turn.Role, turn.Content); err != nil {
		return usage.Zero, err
	}
	return usage.Zero, nil
}

// Recall returns the configured window of recent history. The query is ignored.
func (e *Ephemeral) Recall(ctx context.Context, session Session, _ string) ([]Line, usage.Record, error) {
	msgs, err := e.Read(ctx, session, e.window)
	if err != nil {
		return nil, usage.Zero, err
	}
	lines := make([]Line, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, Line{Role: m.Role, Content: m.Content})
	}
	return lines, usage.Zero, nil
}
