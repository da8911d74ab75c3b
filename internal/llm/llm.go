package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrModelCall marks failures of a remote chat model.
var ErrModelCall = errors.New("model call error")

// ModelCallError wraps a failed model invocation.
type ModelCallError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model %s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *ModelCallError) Unwrap() []error {
	return []error{ErrModelCall, e.Err}
}

// Request is a single system+user exchange.
type Request struct {
	Model        string
	SystemPrompt string
	UserText     string
	Temperature  float64
}

// Response is the model output with raw token counts.
type Response struct {
	Text             string
	TokensPrompt     int64
	TokensCompletion int64
}

// Invoker calls a chat model once.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Router dispatches to a provider by model name prefix.
// claude-* goes to Anthropic, gemini-* to Gemini, everything else to the fallback.
type Router struct {
	anthropic Invoker
	gemini    Invoker
	fallback  Invoker
}

// NewRouter creates a Router. Nil providers are treated as not configured.
func NewRouter(fallback, anthropic, gemini Invoker) *Router {
	return &Router{anthropic: anthropic, gemini: gemini, fallback: fallback}
}

func (r *Router) Invoke(ctx context.Context, req Request) (Response, error) {
	inv := r.pick(req.Model)
	if inv == nil {
		return Response{}, &ModelCallError{Provider: "router", Model: req.Model, Err: errors.New("no provider configured")}
	}
	return inv.Invoke(ctx, req)
}

func (r *Router) pick(model string) Invoker {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return r.anthropic
	case strings.HasPrefix(model, "gemini-"):
		return r.gemini
	default:
		return r.fallback
	}
}
