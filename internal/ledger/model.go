package ledger

import (
	"time"

	"github.com/google/uuid"

	inats "github.com/aiox-platform/agentbrain/internal/nats"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// Entry is one row of agent.turn_ledger.
type Entry struct {
	ID         uuid.UUID
	UserID     string
	SessionID  string
	ClientHash string
	Intent     string
	Denied     bool
	Usage      usage.Record
	DurationMS int64
	OccurredAt time.Time
}

func entryFromEvent(ev inats.TurnEvent) *Entry {
	e := &Entry{
		ID:         ev.ID,
		UserID:     ev.UserID,
		SessionID:  ev.SessionID,
		ClientHash: ev.ClientHash,
		Intent:     ev.Intent,
		Denied:     ev.Denied,
		Usage:      ev.Usage,
		DurationMS: ev.DurationMS,
		OccurredAt: ev.Timestamp,
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return e
}
