package session

import (
	"context"
	"net/http"

	"github.com/devilmonastery/inkwell/internal/client"
)

// TokenStore keeps the admin's token record in the session cookie. It is
// bound to one request and must be created per request; writes set the
// cookie, so they have to happen before the response body is written.
type TokenStore struct {
	manager *Manager
	request *http.Request
	writer  http.ResponseWriter
}

var _ client.Store = (*TokenStore)(nil)

func (m *Manager) TokenStore(r *http.Request, w http.ResponseWriter) *TokenStore {
	return &TokenStore{manager: m, request: r, writer: w}
}

func (s *TokenStore) GetItem(_ context.Context, key string) (string, bool, error) {
	v, ok := s.manager.GetSession(s.request).Values[key].(string)
	return v, ok, nil
}

func (s *TokenStore) SetItem(_ context.Context, key, value string) error {
	session := s.manager.GetSession(s.request)
	session.Values[key] = value
	return session.Save(s.request, s.writer)
}

func (s *TokenStore) RemoveItem(_ context.Context, key string) error {
	session := s.manager.GetSession(s.request)
	delete(session.Values, key)
	return session.Save(s.request, s.writer)
}
