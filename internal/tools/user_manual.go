package tools

import (
	"context"

	"github.com/aiox-platform/agentbrain/internal/agent"
)

// UserManual answers product questions from retrieved manual excerpts.
type UserManual struct {
	agents AgentRunner
}

func NewUserManual(agents AgentRunner) *UserManual {
	return &UserManual{agents: agents}
}

func (f *UserManual) Run(ctx context.Context, req Request) (Response, error) {
	res, err := f.agents.Run(ctx, UserManualAgent, agent.Input{
		Session: req.Session(),
		Message: req.Message,
		Context: req.Context,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Response: res.Response, Record: res.Usage}, nil
}
