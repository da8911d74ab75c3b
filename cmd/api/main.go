package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/aiox-platform/agentbrain/internal/agent"
	"github.com/aiox-platform/agentbrain/internal/api"
	"github.com/aiox-platform/agentbrain/internal/config"
	"github.com/aiox-platform/agentbrain/internal/database"
	"github.com/aiox-platform/agentbrain/internal/knowledge"
	"github.com/aiox-platform/agentbrain/internal/ledger"
	"github.com/aiox-platform/agentbrain/internal/memory"
	mw "github.com/aiox-platform/agentbrain/internal/middleware"
	inats "github.com/aiox-platform/agentbrain/internal/nats"
	"github.com/aiox-platform/agentbrain/internal/orchestrator"
	iredis "github.com/aiox-platform/agentbrain/internal/redis"
	"github.com/aiox-platform/agentbrain/internal/server"
	"github.com/aiox-platform/agentbrain/internal/tools"
	"github.com/aiox-platform/agentbrain/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	agentFile, err := config.LoadAgentFile(cfg.Agents.FilePath)
	if err != nil {
		slog.Error("loading agent file", "error", err, "path", cfg.Agents.FilePath)
		os.Exit(1)
	}
	if err := cfg.ValidateAgentFile(agentFile); err != nil {
		slog.Error("agent file needs missing provider keys", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		slog.Error("initializing tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Vector stores
	stores, err := openVectorStores(ctx, cfg)
	if err != nil {
		slog.Error("opening vector stores", "error", err, "backend", cfg.Agents.VectorBackend)
		os.Exit(1)
	}
	defer stores.Close()

	// Models
	embedder, err := newEmbedder(ctx, cfg, agentFile)
	if err != nil {
		slog.Error("creating embedding client", "error", err)
		os.Exit(1)
	}
	invoker, err := newInvoker(ctx, cfg.Providers)
	if err != nil {
		slog.Error("creating model clients", "error", err)
		os.Exit(1)
	}

	// Memory
	ephemeral := memory.NewEphemeral(redisClient,
		agentFile.ShortTermMemory.MemorySize,
		time.Duration(agentFile.ShortTermMemory.TTLSeconds)*time.Second)
	semantic := memory.NewSemantic(embedder, stores.memory, agentFile.LongTermMemory.RAGSearchK)

	// Agents
	manager, err := agent.NewManager(agentFile.Agents(), os.DirFS(cfg.Agents.PromptDir), invoker, chatPrices(agentFile), ephemeral, semantic)
	if err != nil {
		slog.Error("loading agents", "error", err)
		os.Exit(1)
	}
	required := orchestrator.PipelineAgents
	if cfg.Tools.Mode == "local" {
		required = append(slices.Clone(required), tools.FlowAgents...)
	}
	if err := manager.Require(required...); err != nil {
		slog.Error("agent file is missing pipeline agents", "error", err, "path", cfg.Agents.FilePath)
		os.Exit(1)
	}
	slog.Info("agents loaded", "agents", manager.Names())

	// Tools
	localManual := tools.NewUserManual(manager)
	localAlarms := tools.NewDeviceAlarms(manager, tools.NewAlarmClient(cfg.Tools.AlarmAPIURL, cfg.Tools.HTTPTimeout, cfg.Tools.AlarmCacheTTL))
	flows := orchestrator.Flows{UserManual: localManual, DeviceAlarms: localAlarms}
	if cfg.Tools.Mode == "http" {
		flows = orchestrator.Flows{
			UserManual:   tools.NewHTTPFlow(cfg.Tools.UserManualURL, cfg.Tools.HTTPTimeout),
			DeviceAlarms: tools.NewHTTPFlow(cfg.Tools.DeviceAlarmsURL, cfg.Tools.HTTPTimeout),
		}
	}

	// Orchestrator
	engine := knowledge.NewEngine(embedder, stores.knowledge, agentFile.Knowledge.Application)
	orch := orchestrator.New(manager, engine, flows, orchestrator.Options{
		StageTimeout:  cfg.Pipeline.StageTimeout,
		KnowledgeTopN: agentFile.Knowledge.TopN,
	}, ephemeral, semantic)

	// NATS
	var (
		publisher orchestrator.TurnPublisher
		natsCheck func(context.Context) error
	)
	if cfg.NATS.Enabled() {
		natsClient, err := inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher = inats.NewPublisher(natsClient.JetStream())
		natsCheck = natsClient.Check

		if stores.pool != nil {
			consumer := ledger.NewConsumer(ledger.NewRepository(stores.pool), inats.NewConsumerManager(natsClient.JetStream()))
			go func() {
				if err := consumer.Start(ctx); err != nil {
					slog.Error("ledger consumer stopped", "error", err)
				}
			}()
		}
	} else {
		slog.Info("NATS_URL not set, turn events disabled")
	}

	// Router
	toolHandler := tools.NewHandler(localManual, localAlarms)
	handlers := api.HandlerSet{
		AgentAIBrain: orchestrator.NewHandler(orch, publisher).AgentAIBrain,
		UserManual:   toolHandler.UserManual,
		DeviceAlarms: toolHandler.DeviceAlarms,
	}
	var dbCheck func(context.Context) error
	if stores.pool != nil {
		handlers.UsageByUser = ledger.NewHandler(ledger.NewRepository(stores.pool)).UsageByUser
		dbCheck = func(ctx context.Context) error { return database.HealthCheck(ctx, stores.pool) }
	}

	rateLimiter := mw.NewRateLimiter(redisClient, "ratelimit:v1:", cfg.RateLimit.Requests, cfg.RateLimit.WindowSec)
	router := api.NewRouter(api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimiter:        rateLimiter.Middleware,
		HealthChecks: []api.HealthCheck{
			{Name: "database", Check: dbCheck},
			{Name: "redis", Check: func(ctx context.Context) error { return iredis.HealthCheck(ctx, redisClient) }},
			{Name: "nats", Check: natsCheck},
		},
	}, handlers)

	srv := server.New(cfg.Server, router)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
