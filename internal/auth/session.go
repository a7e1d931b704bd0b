package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/isdelr/ender-auth-be/internal/models"
	"github.com/isdelr/ender-auth-be/internal/services"
	"github.com/isdelr/ender-auth-be/internal/session"
	"github.com/rs/zerolog"
)

type contextKey string

// UserKey is the context key for the authenticated user.
const UserKey = contextKey("user")

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext returns the user attached by SessionMiddleware, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(UserKey).(models.User)
	return user, ok
}

// SessionMiddleware resolves the session cookie to a user and passes it down
// via context. A session whose user no longer exists counts as no session.
func SessionMiddleware(sessions *session.Manager, users services.UserServiceProvider, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.UserID(r)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to read session")
				http.Error(w, "Session store unavailable", http.StatusInternalServerError)
				return
			}
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if errors.Is(err, services.ErrUserNotFound) {
				logger.Warn().Str("user_id", userID).Msg("Session refers to unknown user")
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load session user")
				http.Error(w, "Account store unavailable", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireLogin rejects requests without a session with 403.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Error(w, ReasonLoginRequired, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest redirects requests that already carry a session back home
// with the already-logged-in reason. The wrapped handler is not invoked.
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			RedirectWithReason(w, ParamError, ReasonAlreadyLoggedIn)
			return
		}
		next.ServeHTTP(w, r)
	})
}
