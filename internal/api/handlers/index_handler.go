package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/isdelr/ender-auth-be/internal/auth"
	"github.com/isdelr/ender-auth-be/internal/models"
	"github.com/rs/zerolog"
)

// IndexHandler serves the home page the auth flow redirects to, and the
// health check.
type IndexHandler struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(db *sql.DB, logger zerolog.Logger) *IndexHandler {
	return &IndexHandler{db: db, log: logger}
}

type indexResponse struct {
	User       *models.User `json:"user"`
	Error      string       `json:"error,omitempty"`
	LoginError string       `json:"loginError,omitempty"`
}

// Home reports the current user and echoes any reason left by a redirect.
func (h *IndexHandler) Home(w http.ResponseWriter, r *http.Request) {
	resp := indexResponse{
		Error:      r.URL.Query().Get(auth.ParamError),
		LoginError: r.URL.Query().Get(auth.ParamLoginError),
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		resp.User = &user
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Health pings the database.
func (h *IndexHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
