package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// DefaultOptions returns the cookie attributes shared by every store.
// secure should only be false when the server is reached over plain HTTP.
func DefaultOptions(maxAge int, secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Configure applies opts to a CookieStore or ServerStore and keeps the codec
// max age in step with the cookie. Other stores are left untouched.
func Configure(store sessions.Store, opts *sessions.Options) {
	o := *opts
	switch st := store.(type) {
	case *sessions.CookieStore:
		st.Options = &o
		st.MaxAge(o.MaxAge)
	case *ServerStore:
		st.Options = &o
		st.MaxAge(o.MaxAge)
	}
}
