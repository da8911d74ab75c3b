package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider embeds text with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a provider backed by the Gemini developer API.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Embed(ctx context.Context, text, model string, dimensions int) ([]float32, int64, error) {
	dims := int32(dimensions)
	resp, err := p.client.Models.EmbedContent(ctx, model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("embedding content: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, 0, fmt.Errorf("empty embedding response")
	}

	emb := resp.Embeddings[0]
	// Token statistics are only reported by the Vertex backend.
	var tokens int64
	if emb.Statistics != nil {
		tokens = int64(emb.Statistics.TokenCount)
	}
	return emb.Values, tokens, nil
}
