package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// DB password
	if c.DB.Password == "" && c.Agents.VectorBackend == "postgres" {
		errs = append(errs, "DB_PASSWORD is required when VECTOR_BACKEND=postgres")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.URL == "" && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	switch c.Agents.VectorBackend {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Sprintf("VECTOR_BACKEND must be postgres or memory, got %q", c.Agents.VectorBackend))
	}

	switch c.Tools.Mode {
	case "local":
	case "http":
		if c.Tools.UserManualURL == "" {
			errs = append(errs, "TOOLS_USER_MANUAL_URL is required when TOOLS_MODE=http")
		}
		if c.Tools.DeviceAlarmsURL == "" {
			errs = append(errs, "TOOLS_DEVICE_ALARMS_URL is required when TOOLS_MODE=http")
		}
	default:
		errs = append(errs, fmt.Sprintf("TOOLS_MODE must be local or http, got %q", c.Tools.Mode))
	}

	if c.Pipeline.StageTimeout <= 0 {
		errs = append(errs, "PIPELINE_STAGE_TIMEOUT must be positive")
	}

	if c.Providers.OpenAIKey == "" && c.Providers.AnthropicKey == "" && c.Providers.GeminiKey == "" {
		errs = append(errs, "at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY is required")
	}

	// Alarm API: warn only, the device_alarms tool reports the failure per request
	if c.Tools.AlarmAPIURL == "" {
		slog.Warn("ALARMIMG_WTG_API is empty, device_alarms requests will fail")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

// KeyFor returns the API key of the named provider. An empty name is openai.
func (p ProvidersConfig) KeyFor(provider string) string {
	switch provider {
	case "", "openai":
		return p.OpenAIKey
	case "anthropic":
		return p.AnthropicKey
	case "gemini":
		return p.GeminiKey
	}
	return ""
}

// modelProvider mirrors the model-name routing of the chat clients.
func modelProvider(model string) string {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return "anthropic"
	case strings.HasPrefix(model, "gemini-"):
		return "gemini"
	default:
		return "openai"
	}
}

var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ValidateAgentFile checks that the embedding provider and the model of every
// enabled agent have an API key.
func (c *Config) ValidateAgentFile(f *AgentFile) error {
	var errs []string

	embed := f.Embeddings.Provider
	if embed == "" {
		embed = "openai"
	}
	if c.Providers.KeyFor(embed) == "" {
		errs = append(errs, fmt.Sprintf("%s is required by embeddings.provider=%s", providerKeyEnv[embed], embed))
	}

	agents := f.Agents()
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := agents[name]
		if !a.Enabled {
			continue
		}
		provider := modelProvider(a.Model)
		if c.Providers.KeyFor(provider) == "" {
			errs = append(errs, fmt.Sprintf("%s is required by agent %s (model %s)", providerKeyEnv[provider], name, a.Model))
		}
	}

	if len(errs) > 0 {
		return errors.New("agent file validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
