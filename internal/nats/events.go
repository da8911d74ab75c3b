package nats

import (
	"time"

	"github.com/google/uuid"

	"github.com/aiox-platform/agentbrain/internal/usage"
)

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// StreamEvents keeps pipeline events for a week.
const StreamEvents = "AGENTBRAIN_EVENTS"

const (
	SubjectEventsWildcard = "agentbrain.events.>"
	SubjectTurnEvent      = "agentbrain.events.turn"
)

// TurnEvent is published after every pipeline run, denied ones included.
type TurnEvent struct {
	ID         uuid.UUID    `json:"id"`
	UserID     string       `json:"user_id"`
	SessionID  string       `json:"session_id"`
	ClientHash string       `json:"client_hash,omitempty"`
	Intent     string       `json:"intent,omitempty"`
	Denied     bool         `json:"denied"`
	Usage      usage.Record `json:"usage"`
	DurationMS int64        `json:"duration_ms"`
	Timestamp  time.Time    `json:"timestamp"`
}

// NewTurnEvent stamps a fresh ID and the current time.
func NewTurnEvent(userID, sessionID string) TurnEvent {
	return TurnEvent{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}
