package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/inkfeed/inkfeed/internal/handler/dto"
	"github.com/inkfeed/inkfeed/internal/service"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody, nil)
		return
	}

	userID, err := h.svc.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SignupResponse{
		Message: MsgUserCreated,
		UserID:  userID,
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody, nil)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("login_succeeded", "user_id", result.UserID)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:  result.Token,
		UserID: result.UserID,
	})
}
