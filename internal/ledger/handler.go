package ledger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aiox-platform/agentbrain/internal/api"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// DefaultWindow is how far back a usage summary looks without ?since.
const DefaultWindow = 30 * 24 * time.Hour

// Summarizer sums a user's ledger entries.
type Summarizer interface {
	TotalsByUser(ctx context.Context, userID string, since time.Time) (usage.Record, int64, error)
}

// Summary is the body of GET /v1/usage/{userID}.
type Summary struct {
	UserID string    `json:"user_id"`
	Since  time.Time `json:"since"`
	Turns  int64     `json:"turns"`
	usage.Record
}

type Handler struct {
	repo Summarizer
	now  func() time.Time
}

func NewHandler(repo Summarizer) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

func (h *Handler) UsageByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	since := h.now().Add(-DefaultWindow).UTC()
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			api.HandleError(w, api.NewBadRequestError("since must be an RFC 3339 timestamp"))
			return
		}
		since = t
	}

	total, turns, err := h.repo.TotalsByUser(r.Context(), userID, since)
	if err != nil {
		slog.Error("ledger: summarizing usage", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, Summary{UserID: userID, Since: since, Turns: turns, Record: total})
}
