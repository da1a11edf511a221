package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkfeed/inkfeed/internal/auth"
	"github.com/inkfeed/inkfeed/internal/model"
)

// MsgNotAuthenticated is returned for every rejected bearer token.
const MsgNotAuthenticated = "Not authenticated."

// Authenticator turns a bearer token into an identity.
type Authenticator interface {
	Authenticate(token string) (*model.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and puts the
// caller's identity on the request context.
func RequireAuth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, MsgNotAuthenticated)
				return
			}

			identity, err := authenticator.Authenticate(token)
			if err != nil {
				logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("error", err.Error()),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, MsgNotAuthenticated)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
