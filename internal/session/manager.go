package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// CookieName is the name of the session cookie.
const CookieName = "ender_session"

const userIDKey = "user_id"

// revoker is implemented by stores that keep records server-side.
type revoker interface {
	Revoke(ctx context.Context, id string) error
}

// Manager establishes, reads and destroys the per-connection session.
type Manager struct {
	store sessions.Store
	name  string
}

// NewManager wraps a gorilla sessions store.
func NewManager(store sessions.Store) *Manager {
	return &Manager{store: store, name: CookieName}
}

// UserID returns the id bound to the request's session, or "" when there is
// no session. Tampered or expired cookies count as no session.
func (m *Manager) UserID(r *http.Request) (string, error) {
	s, err := m.session(r)
	if err != nil {
		return "", err
	}
	id, _ := s.Values[userIDKey].(string)
	return id, nil
}

// Establish binds userID to a fresh session and writes the cookie. A
// previous server-side record for the connection is deleted.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, userID string) error {
	s, err := m.session(r)
	if err != nil {
		return err
	}
	if rv, ok := m.store.(revoker); ok && !s.IsNew && s.ID != "" {
		if err := rv.Revoke(r.Context(), s.ID); err != nil {
			return err
		}
	}
	// New id on every login.
	s.ID = ""
	s.IsNew = true
	s.Values = map[interface{}]interface{}{userIDKey: userID}
	return s.Save(r, w)
}

// Destroy clears the session values, deletes any server-side record and
// expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	s, err := m.session(r)
	if err != nil {
		return err
	}
	s.Values = map[interface{}]interface{}{}
	opts := *s.Options
	opts.MaxAge = -1
	s.Options = &opts
	return s.Save(r, w)
}

func (m *Manager) session(r *http.Request) (*sessions.Session, error) {
	s, err := m.store.Get(r, m.name)
	if err != nil && !isDecodeError(err) {
		return nil, err
	}
	if s == nil {
		s = sessions.NewSession(m.store, m.name)
		s.IsNew = true
	}
	if s.Options == nil {
		s.Options = &sessions.Options{Path: "/"}
	}
	return s, nil
}

func isDecodeError(err error) bool {
	var scErr securecookie.Error
	return errors.As(err, &scErr) && scErr.IsDecode()
}
