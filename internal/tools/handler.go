package tools

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aiox-platform/agentbrain/internal/api"
)

// Handler exposes the tool flows over HTTP so remote orchestrators can call them.
type Handler struct {
	userManual   Flow
	deviceAlarms Flow
	validate     *validator.Validate
}

func NewHandler(userManual, deviceAlarms Flow) *Handler {
	return &Handler{
		userManual:   userManual,
		deviceAlarms: deviceAlarms,
		validate:     validator.New(),
	}
}

func (h *Handler) UserManual(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, UserManualAgent, h.userManual)
}

func (h *Handler) DeviceAlarms(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, DeviceAlarmsAgent, h.deviceAlarms)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, name string, flow Flow) {
	var req Request
	if err := api.Decode(r, h.validate, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	resp, err := flow.Run(r.Context(), req)
	if err != nil {
		slog.Error("tools: flow failed", "flow", name, "error", err, "user_id", req.UserID, "session_id", req.SessionID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}
