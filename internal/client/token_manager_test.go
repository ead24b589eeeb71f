package client

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu    sync.Mutex
	items map[string]string
	fail  error
}

func newMapStore() *mapStore {
	return &mapStore{items: map[string]string{}}
}

func (s *mapStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", false, s.fail
	}
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *mapStore) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.items[key] = value
	return nil
}

func (s *mapStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.items, key)
	return nil
}

func (s *mapStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func createTestToken(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SigningString()
	return tokenString + ".fake_signature"
}

func TestTokenManager_GetTokenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager(newMapStore(), WithClock(newFakeClock().Now))
	m.SetToken(ctx, "abc", time.Hour)

	for i := 0; i < 5; i++ {
		token, ok := m.GetToken(ctx)
		require.True(t, ok)
		assert.Equal(t, "abc", token)
	}
}

func TestTokenManager_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMapStore()
	m := NewTokenManager(store, WithClock(clock.Now))

	m.SetToken(ctx, "X", 10*time.Minute)

	clock.Advance(10*time.Minute - time.Millisecond)
	token, ok := m.GetToken(ctx)
	require.True(t, ok)
	assert.Equal(t, "X", token)

	clock.Advance(time.Millisecond)
	_, ok = m.GetToken(ctx)
	assert.False(t, ok, "token must be absent at exactly start+ttl")

	_, found := store.get(DefaultTokenKey)
	assert.False(t, found, "expired record should be cleared")
	_, found = store.get(DefaultExpireKey)
	assert.False(t, found)
}

func TestTokenManager_StoresExpiryInMilliseconds(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMapStore()
	m := NewTokenManager(store, WithClock(clock.Now), WithStorageKeys("tok", "tok_exp"))

	m.SetToken(ctx, "X", 0)

	raw, found := store.get("tok_exp")
	require.True(t, found)
	assert.Equal(t, strconv.FormatInt(clock.Now().Add(DefaultTokenTTL).UnixMilli(), 10), raw)

	value, found := store.get("tok")
	require.True(t, found)
	assert.Equal(t, "X", value)
}

func TestTokenManager_MissingExpiryReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.items[DefaultTokenKey] = "orphan"
	m := NewTokenManager(store)

	assert.False(t, m.HasToken(ctx))
	_, found := store.get(DefaultTokenKey)
	assert.False(t, found)
}

func TestTokenManager_StorageFailuresAreAbsorbed(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.fail = errors.New("quota exceeded")
	var logs bytes.Buffer
	m := NewTokenManager(store, WithTokenLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	assert.NotPanics(t, func() {
		m.SetToken(ctx, "X", time.Hour)
		m.RemoveToken(ctx)
	})
	_, ok := m.GetToken(ctx)
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "token storage unavailable")
	assert.NotContains(t, logs.String(), "token stored")
}

func TestTokenManager_RemoveToken(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager(newMapStore())
	m.SetToken(ctx, "X", time.Hour)
	require.True(t, m.HasToken(ctx))

	m.RemoveToken(ctx)
	assert.False(t, m.HasToken(ctx))
}

// joinedContext closes joined the first time Done is called. RefreshToken
// only asks for Done after it has joined the shared call.
type joinedContext struct {
	context.Context
	once   sync.Once
	joined chan struct{}
}

func (c *joinedContext) Done() <-chan struct{} {
	c.once.Do(func() { close(c.joined) })
	return c.Context.Done()
}

func TestTokenManager_RefreshDeduplicates(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	m := NewTokenManager(newMapStore(), WithAuthenticator(AuthenticatorFunc(func(ctx context.Context) (Credential, error) {
		n := calls.Add(1)
		if n == 1 {
			close(entered)
		}
		<-release
		return Credential{Token: "fresh-" + strconv.Itoa(int(n))}, nil
	})))

	results := make([]RefreshResult, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = m.RefreshToken(ctx)
	}()
	<-entered

	second := &joinedContext{Context: ctx, joined: make(chan struct{})}
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = m.RefreshToken(second)
	}()
	<-second.joined
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, RefreshResult{Success: true, Token: "fresh-1"}, results[0])
	assert.Equal(t, results[0], results[1], "both callers share one outcome")

	token, ok := m.GetToken(ctx)
	require.True(t, ok)
	assert.Equal(t, "fresh-1", token)
}

func TestTokenManager_RefreshClearsInFlightState(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	m := NewTokenManager(newMapStore(), WithAuthenticator(AuthenticatorFunc(func(ctx context.Context) (Credential, error) {
		if calls.Add(1) == 1 {
			return Credential{}, errors.New("invalid credentials")
		}
		return Credential{Token: "second"}, nil
	})))

	first := m.RefreshToken(ctx)
	assert.False(t, first.Success)
	assert.Equal(t, "invalid credentials", first.Error)

	second := m.RefreshToken(ctx)
	assert.True(t, second.Success)
	assert.Equal(t, "second", second.Token)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenManager_RefreshWithoutAuthenticator(t *testing.T) {
	m := NewTokenManager(newMapStore())
	res := m.RefreshToken(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, ErrNoAuthenticator.Error(), res.Error)
}

func TestTokenManager_RefreshCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	m := NewTokenManager(newMapStore(), WithAuthenticator(AuthenticatorFunc(func(ctx context.Context) (Credential, error) {
		<-release
		return Credential{Token: "late"}, nil
	})))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := m.RefreshToken(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, context.DeadlineExceeded.Error(), res.Error)
}

func TestTokenManager_CredentialTTL(t *testing.T) {
	clock := newFakeClock()
	m := NewTokenManager(newMapStore(), WithClock(clock.Now), WithDefaultTTL(2*time.Hour))

	jwtToken := createTestToken(jwt.MapClaims{
		"sub": "42",
		"exp": float64(clock.Now().Add(30 * time.Minute).Unix()),
	})

	tests := []struct {
		name string
		cred Credential
		want time.Duration
	}{
		{name: "jwt exp claim wins", cred: Credential{Token: jwtToken, ExpiresIn: time.Hour}, want: 30 * time.Minute},
		{name: "reported lifetime", cred: Credential{Token: "opaque", ExpiresIn: time.Hour}, want: time.Hour},
		{name: "default", cred: Credential{Token: "opaque"}, want: 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.credentialTTL(tt.cred))
		})
	}
}
