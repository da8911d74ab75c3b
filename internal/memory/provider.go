package memory

import (
	"context"
	"fmt"

	"github.com/aiox-platform/agentbrain/internal/usage"
)

// Role is the author of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the accepted roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Session identifies one user's conversation.
type Session struct {
	UserID    string
	SessionID string
}

func (s Session) validate() error {
	if s.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if s.SessionID == "" {
		return &ValidationError{Field: "session_id", Reason: "must not be empty"}
	}
	return nil
}

// Kind tells the two memory tiers apart when rendering prompts.
type Kind int

const (
	KindEphemeral Kind = iota
	KindSemantic
)

func (k Kind) String() string {
	switch k {
	case KindEphemeral:
		return "ephemeral"
	case KindSemantic:
		return "semantic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Turn is one message to be remembered.
type Turn struct {
	Session   Session
	AgentName string
	Role      Role
	Content   string
	// Usage is the cost already incurred producing Content.
	Usage usage.Record
}

// Line is a remembered message handed back to an agent.
type Line struct {
	Role    Role
	Content string
	Score   float64
}

// Provider is a memory tier an agent can record into and recall from.
type Provider interface {
	Kind() Kind
	// Record stores the turn and returns the cost of storing it. The turn's
	// own Usage is persisted where the tier keeps usage, never returned.
	Record(ctx context.Context, turn Turn) (usage.Record, error)
	// Recall returns remembered lines relevant to query and the cost of
	// finding them.
	Recall(ctx context.Context, session Session, query string) ([]Line, usage.Record, error)
}
