package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// Query parameters carrying failure reasons on the home redirect.
const (
	ParamError      = "error"
	ParamLoginError = "loginError"
)

// Reason strings. Clients match on these verbatim; do not reword.
const (
	ReasonAlreadyLoggedIn  = "already logged in"
	ReasonMissingFields    = "email and password are required"
	ReasonEmailTaken       = "email already registered"
	ReasonUnregistered     = "unregistered account"
	ReasonPasswordMismatch = "password does not match"
	ReasonLoginRequired    = "login required"
)

const homePath = "/"

// EncodeReason percent-encodes s the way browsers' encodeURIComponent does,
// so spaces become %20 rather than +.
func EncodeReason(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ReasonLocation builds "/?<param>=<encoded reason>".
func ReasonLocation(param, reason string) string {
	return homePath + "?" + param + "=" + EncodeReason(reason)
}

// RedirectHome sends a 302 to the home page.
func RedirectHome(w http.ResponseWriter) {
	redirect(w, homePath)
}

// RedirectWithReason sends a 302 to the home page with the reason attached.
func RedirectWithReason(w http.ResponseWriter, param, reason string) {
	redirect(w, ReasonLocation(param, reason))
}

// Location and status only, no body.
func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusFound)
}
