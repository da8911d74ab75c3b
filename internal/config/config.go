package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Log       LogConfig
	Tracing   TracingConfig
	Providers ProvidersConfig
	Agents    AgentsConfig
	Pipeline  PipelineConfig
	Tools     ToolsConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	// URL takes precedence over Host/Port when set, e.g. redis://localhost:6379/0.
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL string
}

// Enabled reports whether turn events should be published.
func (c NATSConfig) Enabled() bool { return c.URL != "" }

type LogConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

type ProvidersConfig struct {
	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string
}

type AgentsConfig struct {
	FilePath  string
	PromptDir string
	// VectorBackend is "postgres" or "memory".
	VectorBackend string
}

type PipelineConfig struct {
	StageTimeout time.Duration
}

type ToolsConfig struct {
	// Mode is "local" to run tool flows in-process or "http" to call them remotely.
	Mode            string
	UserManualURL   string
	DeviceAlarmsURL string
	AlarmAPIURL     string
	AlarmCacheTTL   time.Duration
	HTTPTimeout     time.Duration
}

type RateLimitConfig struct {
	Requests  int
	WindowSec int
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               k.String("server.host"),
			Port:               k.Int("server.port"),
			CORSAllowedOrigins: splitList(k.String("cors.allowed.origins")),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			URL:      k.String("redis.url"),
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
		Tracing: TracingConfig{
			Enabled:     k.Bool("otel.enabled"),
			Endpoint:    k.String("otel.exporter.otlp.endpoint"),
			ServiceName: k.String("otel.service.name"),
		},
		Providers: ProvidersConfig{
			OpenAIKey:    k.String("openai.api.key"),
			AnthropicKey: k.String("anthropic.api.key"),
			GeminiKey:    k.String("gemini.api.key"),
		},
		Agents: AgentsConfig{
			FilePath:      k.String("agent.config.file"),
			PromptDir:     k.String("agent.prompt.dir"),
			VectorBackend: k.String("vector.backend"),
		},
		Tools: ToolsConfig{
			Mode:            k.String("tools.mode"),
			UserManualURL:   k.String("tools.user.manual.url"),
			DeviceAlarmsURL: k.String("tools.device.alarms.url"),
			AlarmAPIURL:     k.String("alarmimg.wtg.api"),
		},
		RateLimit: RateLimitConfig{
			Requests:  k.Int("rate.limit.requests"),
			WindowSec: k.Int("rate.limit.window.sec"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "postgres"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "agentbrain"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4318"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "agentbrain"
	}
	if cfg.Agents.FilePath == "" {
		cfg.Agents.FilePath = "config/agent_config.yaml"
	}
	if cfg.Agents.PromptDir == "" {
		cfg.Agents.PromptDir = "prompts"
	}
	if cfg.Agents.VectorBackend == "" {
		cfg.Agents.VectorBackend = "postgres"
	}
	if cfg.Tools.Mode == "" {
		cfg.Tools.Mode = "local"
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 60
	}
	if cfg.RateLimit.WindowSec == 0 {
		cfg.RateLimit.WindowSec = 60
	}

	// Parse durations
	cfg.Pipeline.StageTimeout, err = durationOr(k.String("pipeline.stage.timeout"), 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parsing pipeline stage timeout: %w", err)
	}
	cfg.Tools.AlarmCacheTTL, err = durationOr(k.String("alarm.cache.ttl"), 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("parsing alarm cache ttl: %w", err)
	}
	cfg.Tools.HTTPTimeout, err = durationOr(k.String("tools.http.timeout"), 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parsing tools http timeout: %w", err)
	}

	return cfg, nil
}

func durationOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
