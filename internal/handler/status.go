package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/inkfeed/inkfeed/internal/auth"
	"github.com/inkfeed/inkfeed/internal/handler/dto"
	"github.com/inkfeed/inkfeed/internal/service"
)

// StatusHandler reads and updates the caller's status line.
type StatusHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(svc *service.AuthService, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{svc: svc, logger: logger}
}

// Get handles GET /status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.GetStatus(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: status})
}

// Update handles PATCH /status.
func (h *StatusHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody, nil)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), auth.UserIDFromContext(r.Context()), req.Status); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: MsgStatusUpdated})
}
