package session

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/devilmonastery/inkwell/internal/client"
)

const (
	// SessionName is the name of the session cookie
	SessionName = "inkwell_session"

	// UsernameKey is the session key for the logged-in admin's name
	UsernameKey = "username"

	// TimezoneKey holds the browser-reported timezone
	TimezoneKey = "client_timezone"
)

// ErrNoToken is returned when no token is found in the session
var ErrNoToken = errors.New("no token in session")

// Manager wraps gorilla/sessions for our use case
type Manager struct {
	store *sessions.CookieStore
}

// NewManager creates a new session manager
// secretKey should be 32 bytes
func NewManager(secretKey []byte, secure bool) *Manager {
	store := sessions.NewCookieStore(secretKey)

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60, // 7 days, the default token lifetime
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store: store,
	}
}

// GetSession returns the request's session. A cookie that cannot be decoded
// yields a new empty session, which the store caches for the rest of the
// request.
func (m *Manager) GetSession(r *http.Request) *sessions.Session {
	session, _ := m.store.Get(r, SessionName)
	return session
}

// GetToken retrieves the API token from the session
func (m *Manager) GetToken(r *http.Request) (string, error) {
	token, ok := m.GetSession(r).Values[client.DefaultTokenKey].(string)
	if !ok || token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// HasToken checks if a session token exists
func (m *Manager) HasToken(r *http.Request) bool {
	_, err := m.GetToken(r)
	return err == nil
}

// SetUsername records who logged in.
func (m *Manager) SetUsername(r *http.Request, w http.ResponseWriter, username string) error {
	session := m.GetSession(r)
	session.Values[UsernameKey] = username
	return session.Save(r, w)
}

func (m *Manager) Username(r *http.Request) string {
	name, _ := m.GetSession(r).Values[UsernameKey].(string)
	return name
}

// SetTimezone stores the browser's timezone for date rendering.
func (m *Manager) SetTimezone(r *http.Request, w http.ResponseWriter, tz string) error {
	session := m.GetSession(r)
	session.Values[TimezoneKey] = tz
	return session.Save(r, w)
}

func (m *Manager) Timezone(r *http.Request) string {
	tz, _ := m.GetSession(r).Values[TimezoneKey].(string)
	return tz
}

// Clear removes the session (logout)
func (m *Manager) Clear(r *http.Request, w http.ResponseWriter) error {
	session := m.GetSession(r)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
