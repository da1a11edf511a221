// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkfeed/inkfeed/internal/handler/dto"
	"github.com/inkfeed/inkfeed/internal/middleware"
	"github.com/inkfeed/inkfeed/internal/service"
)

// Response messages.
const (
	MsgUserCreated    = "User created successfully."
	MsgStatusUpdated  = "Status updated."
	MsgPostsFetched   = "Posts fetched"
	MsgPostCreated    = "Post created successfully"
	MsgPostFetched    = "Post fetched."
	MsgPostUpdated    = "Post updated successfully."
	MsgPostDeleted    = "Post deleted."
	MsgNotAuthorized  = "Not authorized!"
	MsgPostNotFound   = "Post not found"
	MsgUserNotFound   = "User not found."
	MsgNoUserFound    = "No user found."
	MsgInvalidPass    = "Invalid password."
	MsgInvalidBody    = "Invalid request body."
	MsgRouteNotFound  = "Resource not found."
	MsgMethodNotAllow = "Method not allowed."
)

// Handler serves the fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, MsgRouteNotFound, nil)
}

// MethodNotAllowed handles known routes hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllow, nil)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the shared error envelope.
func writeError(w http.ResponseWriter, status int, message string, fields []service.FieldError) {
	writeJSON(w, status, dto.ErrorResponse{
		Message:    message,
		Errors:     fields,
		StatusCode: status,
	})
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Message, verr.Fields)
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, middleware.MsgNotAuthenticated, nil)
	case errors.Is(err, service.ErrNotCreator):
		writeError(w, http.StatusUnauthorized, MsgNotAuthorized, nil)
	case errors.Is(err, service.ErrNoAccount):
		writeError(w, http.StatusUnauthorized, MsgNoUserFound, nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, MsgInvalidPass, nil)
	case errors.Is(err, service.ErrPostNotFound):
		writeError(w, http.StatusNotFound, MsgPostNotFound, nil)
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, MsgUserNotFound, nil)
	default:
		logger.Error("internal_error",
			"error", err,
			"endpoint", r.Method+" "+r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, middleware.MsgInternalError, nil)
	}
}
