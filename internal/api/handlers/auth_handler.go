package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/isdelr/ender-auth-be/internal/auth"
	"github.com/isdelr/ender-auth-be/internal/services"
	"github.com/isdelr/ender-auth-be/internal/session"
	"github.com/rs/zerolog"
)

// AuthHandler handles the join/login/logout flow.
type AuthHandler struct {
	users    services.UserServiceProvider
	sessions *session.Manager
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, sessions *session.Manager, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, log: logger}
}

// AuthPayload carries the join and login fields. Browsers post forms, API
// clients post JSON; both are accepted.
type AuthPayload struct {
	Email    string `json:"email"`
	Nick     string `json:"nick"`
	Password string `json:"password"`
}

// Join creates an account. It never establishes a session; the caller is
// guarded by auth.RequireGuest.
func (h *AuthHandler) Join(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Email == "" || payload.Password == "" {
		auth.RedirectWithReason(w, auth.ParamError, auth.ReasonMissingFields)
		return
	}

	user, err := h.users.CreateUser(r.Context(), payload.Email, payload.Nick, payload.Password)
	if errors.Is(err, services.ErrEmailTaken) {
		h.log.Info().Str("email", payload.Email).Msg("Join rejected: email already registered")
		auth.RedirectWithReason(w, auth.ParamError, auth.ReasonEmailTaken)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User joined")
	auth.RedirectHome(w)
}

// Login verifies credentials and binds the account to a new session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		h.log.Info().Str("email", payload.Email).Msg("Login rejected: unregistered account")
		auth.RedirectWithReason(w, auth.ParamLoginError, auth.ReasonUnregistered)
		return
	case errors.Is(err, services.ErrPasswordMismatch):
		h.log.Info().Str("email", payload.Email).Msg("Login rejected: password mismatch")
		auth.RedirectWithReason(w, auth.ParamLoginError, auth.ReasonPasswordMismatch)
		return
	case err != nil:
		h.log.Error().Err(err).Str("email", payload.Email).Msg("Failed to authenticate user")
		http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Establish(w, r, user.ID); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to establish session")
		http.Error(w, "Failed to establish session", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("user_id", user.ID).Msg("User logged in")
	auth.RedirectHome(w)
}

// Logout destroys the current session. Guarded by auth.RequireLogin.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := h.sessions.Destroy(w, r); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to destroy session")
		http.Error(w, "Failed to destroy session", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("user_id", user.ID).Msg("User logged out")
	auth.RedirectHome(w)
}

func decodePayload(r *http.Request) (AuthPayload, error) {
	var payload AuthPayload

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			return payload, err
		}
		return payload, nil
	}

	if err := r.ParseForm(); err != nil {
		return payload, err
	}
	payload.Email = r.PostForm.Get("email")
	payload.Nick = r.PostForm.Get("nick")
	payload.Password = r.PostForm.Get("password")
	return payload, nil
}
