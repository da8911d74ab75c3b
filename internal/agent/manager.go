package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/aiox-platform/agentbrain/internal/config"
	"github.com/aiox-platform/agentbrain/internal/llm"
	"github.com/aiox-platform/agentbrain/internal/memory"
)

// ErrUnknownAgent is returned when a request names an agent that is not configured.
var ErrUnknownAgent = errors.New("unknown agent")

// Manager owns every configured agent.
type Manager struct {
	agents map[string]*Agent
}

// NewManager builds one Agent per entry, loading each prompt from
// prompts as <prompt_name>.txt.
func NewManager(defs map[string]config.AgentConfig, prompts fs.FS, invoker llm.Invoker, prices llm.PriceTable, memories ...memory.Provider) (*Manager, error) {
	m := &Manager{agents: make(map[string]*Agent, len(defs))}
	for name, def := range defs {
		prompt, err := fs.ReadFile(prompts, def.PromptName+".txt")
		if err != nil {
			return nil, fmt.Errorf("loading prompt %q for agent %s: %w", def.PromptName, name, err)
		}
		m.agents[name] = New(name, def, strings.TrimSpace(string(prompt)), invoker, prices, memories...)
	}
	return m, nil
}

// Get returns the named agent.
func (m *Manager) Get(name string) (*Agent, error) {
	a, ok := m.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	return a, nil
}

// Run executes the named agent.
func (m *Manager) Run(ctx context.Context, name string, in Input) (Result, error) {
	a, err := m.Get(name)
	if err != nil {
		return Result{}, err
	}
	return a.Run(ctx, in)
}

// Require reports every name in names that has no configured agent.
func (m *Manager) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := m.agents[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, strings.Join(missing, ", "))
	}
	return nil
}

// Names lists the configured agents.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.agents))
	for n := range m.agents {
		names = append(names, n)
	}
	return names
}
