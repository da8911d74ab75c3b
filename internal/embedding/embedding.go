package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aiox-platform/agentbrain/internal/usage"
)

// ErrProvider marks failures of the remote embedding provider.
var ErrProvider = errors.New("embedding provider error")

// ProviderError wraps a failed embedding call.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding %s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

// Provider is a remote embedding backend.
// Embed returns a vector of the requested dimensionality and the tokens billed.
type Provider interface {
	Name() string
	Embed(ctx context.Context, text, model string, dimensions int) ([]float32, int64, error)
}

// Result is a single embedding with its accounting.
type Result struct {
	Vector []float32
	Usage  usage.Record
}

// Client embeds text with a fixed model and prices every call.
type Client struct {
	provider   Provider
	model      string
	dimensions int
	prices     PriceTable
}

// NewClient creates an embedding client.
func NewClient(provider Provider, model string, dimensions int, prices PriceTable) *Client {
	return &Client{
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		prices:     prices,
	}
}

// Model returns the configured embedding model.
func (c *Client) Model() string { return c.model }

// Dimensions returns the configured vector length.
func (c *Client) Dimensions() int { return c.dimensions }

// Embed calls the provider once. There is no retry: provider failures are
// returned as *ProviderError.
func (c *Client) Embed(ctx context.Context, text string) (Result, error) {
	vec, tokens, err := c.provider.Embed(ctx, text, c.model, c.dimensions)
	if err != nil {
		return Result{}, &ProviderError{Provider: c.provider.Name(), Model: c.model, Err: err}
	}
	if len(vec) != c.dimensions {
		return Result{}, &ProviderError{
			Provider: c.provider.Name(),
			Model:    c.model,
			Err:      fmt.Errorf("got %d dimensions, want %d", len(vec), c.dimensions),
		}
	}

	cost, known := c.prices.Cost(c.model, tokens)
	if !known {
		slog.Debug("embedding: no price for model, cost set to zero", "model", c.model)
	}

	// Embeddings only consume prompt tokens.
	return Result{
		Vector: vec,
		Usage:  usage.FromTokens(tokens, 0, cost),
	}, nil
}
