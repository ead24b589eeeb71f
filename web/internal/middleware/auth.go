package middleware

import (
	"log/slog"
	"net/http"

	"github.com/devilmonastery/inkwell/web/internal/session"
)

// AuthMiddleware guards admin routes. Token expiry is not checked here: the
// per-request client refreshes or rejects the token when it is used.
type AuthMiddleware struct {
	sessionManager *session.Manager
	log            *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessionManager *session.Manager, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessionManager: sessionManager,
		log:            logger.With(slog.String("component", "auth_middleware")),
	}
}

// RequireAdmin redirects to the login page when the session has no token
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.sessionManager.HasToken(r) {
			m.log.Debug("no token in session, redirecting to login", slog.String("path", r.URL.Path))
			http.Redirect(w, r, "/login?next="+r.URL.Path, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
