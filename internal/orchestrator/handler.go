package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aiox-platform/agentbrain/internal/api"
	inats "github.com/aiox-platform/agentbrain/internal/nats"
)

const publishTimeout = 2 * time.Second

// TurnPublisher announces finished pipeline runs.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event inats.TurnEvent) error
}

// Handler serves the pipeline entry point.
type Handler struct {
	orch     *Orchestrator
	events   TurnPublisher
	validate *validator.Validate
}

// NewHandler creates a Handler. events may be nil when NATS is not configured.
func NewHandler(orch *Orchestrator, events TurnPublisher) *Handler {
	return &Handler{
		orch:     orch,
		events:   events,
		validate: validator.New(),
	}
}

func (h *Handler) AgentAIBrain(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := api.Decode(r, h.validate, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	start := time.Now()
	res, err := h.orch.Handle(r.Context(), req)
	if err != nil {
		slog.Error("pipeline: request failed", "error", err, "user_id", req.UserID, "session_id", req.SessionID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	h.publish(r.Context(), req, res, time.Since(start))
	api.JSON(w, http.StatusOK, res.Response)
}

// publish never fails the request; the answer is already computed.
func (h *Handler) publish(ctx context.Context, req Request, res *Result, took time.Duration) {
	if h.events == nil {
		return
	}
	ev := inats.NewTurnEvent(req.UserID, req.SessionID)
	ev.ClientHash = req.ClientHash
	ev.Intent = string(res.Intent)
	ev.Denied = res.Denied
	ev.Usage = res.Record
	ev.DurationMS = took.Milliseconds()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := h.events.PublishTurn(ctx, ev); err != nil {
		slog.Warn("pipeline: publishing turn event", "error", err, "event_id", ev.ID)
	}
}
