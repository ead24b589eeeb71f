package client

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

const (
	DefaultTokenKey  = "blog_token"
	DefaultExpireKey = "blog_token_expire"
	DefaultTokenTTL  = 24 * time.Hour
)

// Store is a persistent key-value mechanism for the token record.
// Implementations live in internal/tokenstore.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// RefreshResult is the outcome of a refresh. Failures are reported here
// rather than as errors so callers decide how to react.
type RefreshResult struct {
	Success bool
	Token   string
	Error   string
}

// TokenManager is the single authority for reading, writing and refreshing
// the bearer token. At most one refresh runs at a time; concurrent callers
// share its outcome.
type TokenManager struct {
	store     Store
	tokenKey  string
	expireKey string
	ttl       time.Duration
	now       func() time.Time
	log       *slog.Logger

	authMu sync.RWMutex
	auth   Authenticator

	group singleflight.Group
}

type TokenManagerOption func(*TokenManager)

func WithAuthenticator(a Authenticator) TokenManagerOption {
	return func(m *TokenManager) { m.auth = a }
}

func WithStorageKeys(tokenKey, expireKey string) TokenManagerOption {
	return func(m *TokenManager) {
		if tokenKey != "" {
			m.tokenKey = tokenKey
		}
		if expireKey != "" {
			m.expireKey = expireKey
		}
	}
}

func WithDefaultTTL(ttl time.Duration) TokenManagerOption {
	return func(m *TokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, used by tests to move across expiry.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) { m.now = now }
}

func WithTokenLogger(logger *slog.Logger) TokenManagerOption {
	return func(m *TokenManager) { m.log = logger }
}

func NewTokenManager(store Store, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		store:     store,
		tokenKey:  DefaultTokenKey,
		expireKey: DefaultExpireKey,
		ttl:       DefaultTokenTTL,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(slog.String("component", "token-manager"))
	return m
}

// SetAuthenticator installs the login step used by RefreshToken. Password
// logins go through a Client that itself holds this manager, so the
// authenticator is often attached after construction.
func (m *TokenManager) SetAuthenticator(a Authenticator) {
	m.authMu.Lock()
	defer m.authMu.Unlock()
	m.auth = a
}

func (m *TokenManager) authenticator() Authenticator {
	m.authMu.RLock()
	defer m.authMu.RUnlock()
	return m.auth
}

// bestEffort runs a storage operation. Persistence is advisory: failures are
// logged and reported as false, never propagated.
func (m *TokenManager) bestEffort(op string, fn func() error) bool {
	if err := fn(); err != nil {
		m.log.Warn("token storage unavailable",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// record returns the stored token and its expiry when both are present and
// the token has not expired. Stale or unreadable records are cleared.
func (m *TokenManager) record(ctx context.Context) (string, time.Time, bool) {
	var token, rawExpiry string
	var found, expiryFound bool

	if !m.bestEffort("get", func() (err error) {
		token, found, err = m.store.GetItem(ctx, m.tokenKey)
		return err
	}) || !found || token == "" {
		return "", time.Time{}, false
	}

	if !m.bestEffort("get", func() (err error) {
		rawExpiry, expiryFound, err = m.store.GetItem(ctx, m.expireKey)
		return err
	}) {
		return "", time.Time{}, false
	}

	ms, err := strconv.ParseInt(rawExpiry, 10, 64)
	if !expiryFound || err != nil {
		m.log.Debug("token has no readable expiry, clearing")
		m.RemoveToken(ctx)
		return "", time.Time{}, false
	}

	expiresAt := time.UnixMilli(ms)
	if !m.now().Before(expiresAt) {
		m.log.Debug("token expired, clearing", slog.Time("expires_at", expiresAt))
		m.RemoveToken(ctx)
		return "", time.Time{}, false
	}
	return token, expiresAt, true
}

// GetToken returns the current token, or false when it is missing, expired
// or the store cannot be read.
func (m *TokenManager) GetToken(ctx context.Context) (string, bool) {
	token, _, ok := m.record(ctx)
	return token, ok
}

// Expiry returns when the current token expires.
func (m *TokenManager) Expiry(ctx context.Context) (time.Time, bool) {
	_, expiresAt, ok := m.record(ctx)
	return expiresAt, ok
}

func (m *TokenManager) HasToken(ctx context.Context) bool {
	_, ok := m.GetToken(ctx)
	return ok
}

// SetToken stores value with an expiry of now+ttl. A non-positive ttl uses
// the manager's default.
func (m *TokenManager) SetToken(ctx context.Context, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	expiresAt := m.now().Add(ttl)

	stored := m.bestEffort("set", func() error {
		if err := m.store.SetItem(ctx, m.tokenKey, value); err != nil {
			return err
		}
		return m.store.SetItem(ctx, m.expireKey, strconv.FormatInt(expiresAt.UnixMilli(), 10))
	})
	if stored {
		m.log.Debug("token stored", slog.Time("expires_at", expiresAt))
	}
}

func (m *TokenManager) RemoveToken(ctx context.Context) {
	m.bestEffort("remove", func() error {
		return m.store.RemoveItem(ctx, m.tokenKey)
	})
	m.bestEffort("remove", func() error {
		return m.store.RemoveItem(ctx, m.expireKey)
	})
}

const refreshKey = "refresh"

// RefreshToken joins the in-flight refresh or starts a new one. The login
// runs detached from ctx so one caller giving up does not fail the others;
// ctx only bounds how long this caller waits.
func (m *TokenManager) RefreshToken(ctx context.Context) RefreshResult {
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		return res.Val.(RefreshResult)
	case <-ctx.Done():
		return RefreshResult{Error: ctx.Err().Error()}
	}
}

func (m *TokenManager) refresh(ctx context.Context) RefreshResult {
	auth := m.authenticator()
	if auth == nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return RefreshResult{Error: ErrNoAuthenticator.Error()}
	}

	start := time.Now()
	cred, err := auth.Login(ctx)
	metrics.TokenRefreshDuration.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		m.log.Error("token refresh failed", slog.String("error", err.Error()))
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return RefreshResult{Error: err.Error()}
	}
	if cred.Token == "" {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return RefreshResult{Error: "login returned an empty token"}
	}

	m.SetToken(ctx, cred.Token, m.credentialTTL(cred))
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	m.log.Info("token refreshed")
	return RefreshResult{Success: true, Token: cred.Token}
}

// credentialTTL prefers the JWT exp claim, then the lifetime reported by the
// login, then the default.
func (m *TokenManager) credentialTTL(cred Credential) time.Duration {
	if claims, err := ParseTokenClaims(cred.Token); err == nil {
		if ttl := claims.ExpiresAt.Sub(m.now()); ttl > 0 {
			return ttl
		}
	}
	if cred.ExpiresIn > 0 {
		return cred.ExpiresIn
	}
	return m.ttl
}
