package embedding

import (
	"context"
	"fmt"

	"github.com/aiox-platform/agentbrain/internal/config"
)

// NewProvider opens the named provider with its key from keys.
func NewProvider(ctx context.Context, name string, keys config.ProvidersConfig) (Provider, error) {
	switch name {
	case "", "openai":
		return NewOpenAIProvider(keys.OpenAIKey), nil
	case "gemini":
		return NewGeminiProvider(ctx, keys.GeminiKey)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", name)
	}
}
