// Package session binds authenticated users to client connections on top of
// gorilla/sessions. Session values live either in a signed cookie or in a
// server-side Backend (Redis, SQLite) addressed by a signed session id.
package session

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// ErrNotFound is returned by a Backend when no live record exists for an id.
var ErrNotFound = errors.New("session not found")

// Backend persists serialized session values by id.
type Backend interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ServerStore is a sessions.Store whose cookie only carries the session id.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend    Backend
	serializer securecookie.GobEncoder
}

var _ sessions.Store = (*ServerStore)(nil)

// NewServerStore returns a store writing values to backend. keyPairs follow
// the securecookie convention of alternating hash and block keys.
func NewServerStore(backend Backend, keyPairs ...[]byte) *ServerStore {
	return &ServerStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:   "/",
			MaxAge: 86400,
		},
		backend: backend,
	}
}

// MaxAge sets the cookie and record lifetime in seconds.
func (s *ServerStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get returns the session cached in the request registry, loading it on first use.
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing or undecodable
// cookie yields a fresh session; the decode error is still returned so callers
// can tell tampering apart from absence.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, err
	}

	data, err := s.backend.Load(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return session, nil
	}
	if err != nil {
		return session, fmt.Errorf("load session: %w", err)
	}
	if err := s.serializer.Deserialize(data, &session.Values); err != nil {
		// Unreadable record: drop it and start over.
		return session, nil
	}

	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes the id cookie. A negative MaxAge
// deletes the record and expires the cookie.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(ctx, session.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newID()
	}

	data, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	if err := s.backend.Save(ctx, session.ID, data, s.ttl(session)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Revoke deletes the server-side record for id.
func (s *ServerStore) Revoke(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *ServerStore) ttl(session *sessions.Session) time.Duration {
	age := session.Options.MaxAge
	if age == 0 {
		age = s.Options.MaxAge
	}
	if age <= 0 {
		age = 86400
	}
	return time.Duration(age) * time.Second
}

func newID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}
