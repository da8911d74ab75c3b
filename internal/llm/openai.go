package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI invokes chat completions.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI creates an OpenAI invoker. An empty apiKey falls back to OPENAI_API_KEY.
func NewOpenAI(apiKey string, opts ...option.RequestOption) *OpenAI {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAI{client: openai.NewClient(opts...)}
}

func (o *OpenAI) Invoke(ctx context.Context, req Request) (Response, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserText),
		},
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return Response{}, &ModelCallError{Provider: "openai", Model: req.Model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return Response{}, &ModelCallError{Provider: "openai", Model: req.Model, Err: errors.New("no choices returned")}
	}

	return Response{
		Text:             resp.Choices[0].Message.Content,
		TokensPrompt:     resp.Usage.PromptTokens,
		TokensCompletion: resp.Usage.CompletionTokens,
	}, nil
}
