package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/aiox-platform/agentbrain/internal/config"
	"github.com/aiox-platform/agentbrain/internal/llm"
	"github.com/aiox-platform/agentbrain/internal/memory"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

const (
	historyPreamble  = "Histórico da conversa (não continuar, apenas referência):"
	shortTermHeader  = "=== MEMÓRIA DE CURTO PRAZO ==="
	longTermHeader   = "=== MEMÓRIA DE LONGO PRAZO ==="
	contextHeader    = "=== CONTEXTO ==="
	sectionSeparator = "\n\n"
	speakerUser      = "Usuário"
	speakerAssistant = "Assistente"
)

// Input is what an agent runs on.
type Input struct {
	Session memory.Session
	Message string
	// Context is static reference text, used only when the agent has use_context.
	Context string
}

// Result is the agent's reply and everything it cost.
type Result struct {
	Response string       `json:"response"`
	Usage    usage.Record `json:"usage"`
}

// Agent assembles a prompt from its instructions, memory and context, then
// invokes its model.
type Agent struct {
	name         string
	cfg          config.AgentConfig
	systemPrompt string
	invoker      llm.Invoker
	prices       llm.PriceTable
	memories     []memory.Provider
}

// New creates an agent. Memories are rendered in the order given.
func New(name string, cfg config.AgentConfig, systemPrompt string, invoker llm.Invoker, prices llm.PriceTable, memories ...memory.Provider) *Agent {
	return &Agent{
		name:         name,
		cfg:          cfg,
		systemPrompt: strings.TrimSpace(systemPrompt),
		invoker:      invoker,
		prices:       prices,
		memories:     memories,
	}
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Run builds the prompt and calls the model once. A disabled agent echoes
// its input at zero cost.
func (a *Agent) Run(ctx context.Context, in Input) (Result, error) {
	if !a.cfg.Enabled {
		return Result{Response: in.Message}, nil
	}

	system, recallCost, err := a.buildSystemPrompt(ctx, in)
	if err != nil {
		return Result{}, fmt.Errorf("agent %s: %w", a.name, err)
	}

	resp, err := a.invoker.Invoke(ctx, llm.Request{
		Model:        a.cfg.Model,
		SystemPrompt: system,
		UserText:     in.Message,
		Temperature:  a.cfg.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("agent %s: %w", a.name, err)
	}

	cost := a.prices.Cost(a.cfg.Model, resp.TokensPrompt, resp.TokensCompletion)
	return Result{
		Response: resp.Text,
		Usage:    usage.Merge(usage.FromTokens(resp.TokensPrompt, resp.TokensCompletion, cost), recallCost),
	}, nil
}

// buildSystemPrompt joins, in order: instructions, short-term history,
// long-term recall, static context.
func (a *Agent) buildSystemPrompt(ctx context.Context, in Input) (string, usage.Record, error) {
	sections := []string{a.systemPrompt}
	recallCost := usage.Zero

	if a.cfg.UseMemoryHistory {
		for _, kind := range []memory.Kind{memory.KindEphemeral, memory.KindSemantic} {
			for _, p := range a.memories {
				if p.Kind() != kind {
					continue
				}
				lines, cost, err := p.Recall(ctx, in.Session, in.Message)
				if err != nil {
					return "", usage.Zero, fmt.Errorf("recalling %s memory: %w", kind, err)
				}
				recallCost = recallCost.Add(cost)
				if block := formatHistory(lines); block != "" {
					sections = append(sections, memoryHeader(kind)+"\n"+block)
				}
			}
		}
	}

	if a.cfg.UseContext {
		if c := strings.TrimSpace(in.Context); c != "" {
			sections = append(sections, contextHeader+"\n"+c)
		}
	}

	return strings.Join(sections, sectionSeparator), recallCost, nil
}

func memoryHeader(k memory.Kind) string {
	if k == memory.KindSemantic {
		return longTermHeader
	}
	return shortTermHeader
}

func formatHistory(lines []memory.Line) string {
	if len(lines) == 0 {
		return ""
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, historyPreamble)
	for _, l := range lines {
		speaker := speakerAssistant
		if l.Role == memory.RoleUser {
			speaker = speakerUser
		}
		out = append(out, speaker+": "+l.Content)
	}
	return strings.Join(out, "\n")
}
