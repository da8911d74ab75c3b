package tools

import (
	"context"

	"github.com/aiox-platform/agentbrain/internal/agent"
	"github.com/aiox-platform/agentbrain/internal/memory"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// Agent names the tool flows run.
const (
	UserManualAgent   = "user_manual"
	DeviceAlarmsAgent = "device_alarms"
)

// FlowAgents are the agents the local flows run.
var FlowAgents = []string{UserManualAgent, DeviceAlarmsAgent}

// Request is what a tool flow receives.
type Request struct {
	UserID     string `json:"user_id" validate:"required"`
	SessionID  string `json:"session_id" validate:"required"`
	ClientHash string `json:"client_hash"`
	Message    string `json:"message" validate:"required"`
	Context    string `json:"context,omitempty"`
}

// Session returns the memory session the request belongs to.
func (r Request) Session() memory.Session {
	return memory.Session{UserID: r.UserID, SessionID: r.SessionID}
}

// Response is a tool flow's answer. Usage fields are flattened into the JSON.
type Response struct {
	Response string `json:"response"`
	usage.Record
}

// Flow handles one intent.
type Flow interface {
	Run(ctx context.Context, req Request) (Response, error)
}

// AgentRunner runs a configured agent by name.
type AgentRunner interface {
	Run(ctx context.Context, name string, in agent.Input) (agent.Result, error)
}
