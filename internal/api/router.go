package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/aiox-platform/agentbrain/internal/middleware"
)

const readinessTimeout = 2 * time.Second

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	AgentAIBrain http.HandlerFunc
	UserManual   http.HandlerFunc
	DeviceAlarms http.HandlerFunc

	// UsageByUser is optional; it needs the ledger database.
	UsageByUser http.HandlerFunc
}

// HealthCheck is one dependency probed by the readiness endpoint.
// A nil Check reports "not configured".
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimiter        func(http.Handler) http.Handler
	HealthChecks       []HealthCheck
}

func NewRouter(cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	r.Get("/health/ready", readiness(cfg.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter)
		}
		r.Post("/agent_ai_brain", h.AgentAIBrain)
		r.Post("/user_manual", h.UserManual)
		r.Post("/device_alarms", h.DeviceAlarms)
		if h.UsageByUser != nil {
			r.Get("/usage/{userID}", h.UsageByUser)
		}
	})

	return r
}

func readiness(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		health := map[string]string{"status": "healthy"}
		status := http.StatusOK
		for _, c := range checks {
			switch {
			case c.Check == nil:
				health[c.Name] = "not configured"
			case c.Check(ctx) != nil:
				health[c.Name] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			default:
				health[c.Name] = "healthy"
			}
		}
		JSON(w, status, health)
	}
}
