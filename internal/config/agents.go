package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AgentFile is the agent/memory/pricing configuration loaded from YAML.
type AgentFile struct {
	Embeddings      EmbeddingsConfig       `yaml:"embeddings"`
	ShortTermMemory ShortTermMemoryConfig  `yaml:"short_term_memory"`
	LongTermMemory  LongTermMemoryConfig   `yaml:"long_term_memory"`
	Knowledge       KnowledgeConfig        `yaml:"knowledge"`
	Pricing         PricingConfig          `yaml:"pricing"`
	BrainAgents     map[string]AgentConfig `yaml:"brain_agents" validate:"dive"`
	ToolAgents      map[string]AgentConfig `yaml:"tool_agents" validate:"dive"`
}

type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" validate:"omitempty,oneof=openai gemini"`
	Model      string `yaml:"model" validate:"required"`
	Dimensions int    `yaml:"dimensions" validate:"gte=0"`
}

type ShortTermMemoryConfig struct {
	MemorySize int `yaml:"memory_size" validate:"gte=0"`
	TTLSeconds int `yaml:"ttl_seconds" validate:"gte=0"`
}

type LongTermMemoryConfig struct {
	RAGSearchK int `yaml:"rag_search_k" validate:"gte=0"`
}

type KnowledgeConfig struct {
	TopN        int    `yaml:"top_n" validate:"gte=0"`
	Application string `yaml:"application"`
}

type PricingConfig struct {
	Embeddings map[string]float64   `yaml:"embeddings"`
	Chat       map[string]ChatPrice `yaml:"chat"`
}

type ChatPrice struct {
	Input  float64 `yaml:"input" validate:"gte=0"`
	Output float64 `yaml:"output" validate:"gte=0"`
}

// AgentConfig describes one agent.
type AgentConfig struct {
	Model            string  `yaml:"model" validate:"required"`
	Enabled          bool    `yaml:"enabled"`
	PromptName       string  `yaml:"prompt_name" validate:"required"`
	Temperature      float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	UseContext       bool    `yaml:"use_context"`
	UseMemoryHistory bool    `yaml:"use_memory_history"`
}

// Agents returns brain and tool agents in one map. Tool agents win on
// duplicate names.
func (f *AgentFile) Agents() map[string]AgentConfig {
	out := make(map[string]AgentConfig, len(f.BrainAgents)+len(f.ToolAgents))
	for name, a := range f.BrainAgents {
		out[name] = a
	}
	for name, a := range f.ToolAgents {
		out[name] = a
	}
	return out
}

// LoadAgentFile reads, defaults and validates the agent file.
func LoadAgentFile(path string) (*AgentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agent file: %w", err)
	}
	return ParseAgentFile(data)
}

// ParseAgentFile parses YAML agent configuration.
func ParseAgentFile(data []byte) (*AgentFile, error) {
	var f AgentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing agent file: %w", err)
	}
	f.applyDefaults()

	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("validating agent file: %w", err)
	}
	return &f, nil
}

func (f *AgentFile) applyDefaults() {
	if f.Embeddings.Provider == "" {
		f.Embeddings.Provider = "openai"
	}
	if f.Embeddings.Dimensions == 0 {
		f.Embeddings.Dimensions = 1536
	}
	if f.ShortTermMemory.MemorySize == 0 {
		f.ShortTermMemory.MemorySize = 10
	}
	if f.ShortTermMemory.TTLSeconds == 0 {
		f.ShortTermMemory.TTLSeconds = 600
	}
	if f.LongTermMemory.RAGSearchK == 0 {
		f.LongTermMemory.RAGSearchK = 3
	}
	if f.Knowledge.TopN == 0 {
		f.Knowledge.TopN = 5
	}
}
