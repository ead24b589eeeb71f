package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordLogin(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		result  string
		want    Credential
		wantErr bool
	}{
		{name: "bare token", data: "tok-abc", result: ResultSuccess, want: Credential{Token: "tok-abc"}},
		{name: "token object", data: map[string]any{"token": "tok-obj", "expiresIn": 3600}, result: ResultSuccess,
			want: Credential{Token: "tok-obj", ExpiresIn: time.Hour}},
		{name: "rejected", data: nil, result: ResultFail, wantErr: true},
		{name: "no token", data: map[string]any{"user": "x"}, result: ResultSuccess, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/user/login", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"), "login must skip auth")

				var req loginRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "admin", req.Username)
				assert.Equal(t, "secret", req.Password)
				writeEnvelope(w, tt.data, tt.result, "bad credentials")
			}))
			defer srv.Close()

			tokens := tokensWith("stale", nil)
			c := newTestClient(srv.URL, tokens)
			cred, err := NewPasswordLogin(c, "", "admin", "secret").Login(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cred)
		})
	}
}

func TestPasswordLoginDrivesRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			writeEnvelope(w, "fresh", ResultSuccess, "ok")
		default:
			if r.Header.Get("Authorization") != "fresh" {
				writeEnvelope(w, nil, ResultFail, "token失效")
				return
			}
			writeEnvelope(w, []int{1, 2}, ResultSuccess, "ok")
		}
	}))
	defer srv.Close()

	tokens := NewTokenManager(newMapStore())
	c := newTestClient(srv.URL, tokens)
	tokens.SetAuthenticator(NewPasswordLogin(c, "/user/login", "admin", "secret"))

	env, err := c.Get(context.Background(), "/category/getAllCategories", nil)
	require.NoError(t, err)

	var ids []int
	require.NoError(t, env.Decode(&ids))
	assert.Equal(t, []int{1, 2}, ids)
}

func TestPasswordLoginRejectedTokenSettlesRefresh(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/signin" {
			logins.Add(1)
		}
		writeEnvelope(w, nil, ResultFail, "token失效")
	}))
	defer srv.Close()

	tokens := NewTokenManager(newMapStore())
	c := newTestClient(srv.URL, tokens)
	tokens.SetAuthenticator(NewPasswordLogin(c, "/auth/signin", "admin", "secret"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Get(ctx, "/category/getAllCategories", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.NoError(t, ctx.Err(), "refresh must settle without waiting on itself")
	assert.Equal(t, int32(1), logins.Load())

	res := tokens.RefreshToken(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, int32(2), logins.Load(), "a settled refresh lets the next one log in again")
}

func TestClientCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"cc-token","token_type":"bearer","expires_in":600}`))
	}))
	defer srv.Close()

	cred, err := NewClientCredentials(srv.URL+"/oauth/token", "id", "secret", nil).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cc-token", cred.Token)
	assert.InDelta(t, (10 * time.Minute).Seconds(), cred.ExpiresIn.Seconds(), 5)
}

func TestClientCredentialsDiscovery(t *testing.T) {
	var discoveries int
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			discoveries++
			_, _ = w.Write([]byte(`{"issuer":"` + srv.URL + `","token_endpoint":"` + srv.URL + `/oauth/token"}`))
		case "/oauth/token":
			_, _ = w.Write([]byte(`{"access_token":"discovered","token_type":"bearer"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cc := NewDiscoveredClientCredentials(srv.URL+"/", "id", "secret", nil, NewDiscoveryCache(srv.Client(), time.Hour))
	for i := 0; i < 2; i++ {
		cred, err := cc.Login(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "discovered", cred.Token)
	}
	assert.Equal(t, 1, discoveries, "document is cached")
}

func TestDiscoveryWithoutTokenEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"issuer":"x"}`))
	}))
	defer srv.Close()

	_, err := NewDiscoveryCache(nil, time.Hour).Get(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestStaticToken(t *testing.T) {
	cred, err := StaticToken("t").Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t", cred.Token)

	_, err = StaticToken("").Login(context.Background())
	assert.Error(t, err)
}
