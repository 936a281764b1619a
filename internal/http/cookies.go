package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

const (
	// DefaultCookieName names the signed session cookie when none is configured.
	DefaultCookieName  = "jobtracker_session"
	tokenValueKey      = "token"
	sessionTokenHeader = "X-Session-Token"
)

// CookieConfig configures the signed session cookie.
type CookieConfig struct {
	Secret []byte
	Name   string
	Secure bool
	MaxAge time.Duration
}

// CookieSessions keeps the session token in a signed cookie. The token is
// still validated against the session table on every request.
type CookieSessions struct {
	store sessions.Store
	name  string
}

// NewCookieSessions builds a cookie store signed with cfg.Secret.
func NewCookieSessions(cfg CookieConfig) *CookieSessions {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = DefaultCookieName
	}

	store := sessions.NewCookieStore(cfg.Secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieSessions{store: store, name: name}
}

// Name returns the cookie name.
func (c *CookieSessions) Name() string {
	if c == nil {
		return DefaultCookieName
	}
	return c.name
}

// Token returns the token stored in the request cookie, or "" when the
// cookie is absent or fails signature checks.
func (c *CookieSessions) Token(r *http.Request) string {
	if c == nil || r == nil {
		return ""
	}
	session, err := c.store.Get(r, c.name)
	if err != nil {
		return ""
	}
	token, _ := session.Values[tokenValueKey].(string)
	return token
}

// Save writes the token into the cookie.
func (c *CookieSessions) Save(w http.ResponseWriter, r *http.Request, token string) error {
	if c == nil {
		return nil
	}
	session, _ := c.store.Get(r, c.name)
	session.Values[tokenValueKey] = token
	return session.Save(r, w)
}

// Clear expires the cookie.
func (c *CookieSessions) Clear(w http.ResponseWriter, r *http.Request) error {
	if c == nil {
		return nil
	}
	session, _ := c.store.Get(r, c.name)
	delete(session.Values, tokenValueKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// extractToken prefers an Authorization bearer header over the cookie.
func extractToken(r *http.Request, cookies *CookieSessions) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		return ""
	}
	return cookies.Token(r)
}
