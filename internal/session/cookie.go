package session

import (
	"net/http"
	"strings"

	"github.com/brizzai/auto-eda/internal/config"
)

// CookieJar reads and writes the session id cookie
type CookieJar struct {
	name   string
	secure bool
}

// NewCookieJar builds a jar from the session config
func NewCookieJar(cfg config.SessionConfig) *CookieJar {
	name := cfg.CookieName
	if name == "" {
		name = "eda_session"
	}
	return &CookieJar{name: name, secure: cfg.CookieSecure}
}

// Read returns the trimmed session id when present
func (j *CookieJar) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(j.name)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	return value, value != ""
}

// Write sets the session cookie
func (j *CookieJar) Write(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     j.name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie
func (j *CookieJar) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     j.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
