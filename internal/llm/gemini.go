package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini invokes Gemini models.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini invoker backed by the Gemini developer API.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Invoke(ctx context.Context, req Request) (Response, error) {
	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.UserText), cfg)
	if err != nil {
		return Response{}, &ModelCallError{Provider: "gemini", Model: req.Model, Err: err}
	}

	out := Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.TokensPrompt = int64(resp.UsageMetadata.PromptTokenCount)
		out.TokensCompletion = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
