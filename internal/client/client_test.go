package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, data any, result, message string) {
	raw, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(Envelope{Data: raw, Result: result, Message: message})
}

type recordingFeedback struct {
	mu      sync.Mutex
	loading []bool
	toasts  []string
}

func (f *recordingFeedback) Loading(show bool, message string, onClose func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = append(f.loading, show)
}

func (f *recordingFeedback) Toast(message string, onClose func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, message)
}

func newTestClient(baseURL string, tokens *TokenManager, opts ...Option) *Client {
	cfg := Config{
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		Headers:     map[string]string{"X-Client": "inkwell-test"},
		WithAuth:    true,
		AutoRefresh: true,
	}
	opts = append([]Option{WithTokenManager(tokens), WithDefaultFeedback(NopFeedback{})}, opts...)
	return New(cfg, opts...)
}

func tokensWith(token string, auth Authenticator) *TokenManager {
	m := NewTokenManager(newMapStore(), WithAuthenticator(auth))
	if token != "" {
		m.SetToken(context.Background(), token, time.Hour)
	}
	return m
}

func TestRequest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/category/getCategories", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("fatherId"))
		assert.Equal(t, "tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "inkwell-test", r.Header.Get("X-Client"))
		writeEnvelope(w, []map[string]any{{"id": 1, "name": "Go"}}, ResultSuccess, "ok")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, tokensWith("tok-1", nil))
	env, err := c.Get(context.Background(), "/category/getCategories", Params{"fatherId": 0, "missing": nil})
	require.NoError(t, err)

	var cats []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, env.Decode(&cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "Go", cats[0].Name)
}

func TestRequest_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{status: http.StatusUnauthorized, want: KindAuth},
		{status: http.StatusForbidden, want: KindAuth},
		{status: http.StatusNotFound, want: KindNetwork},
		{status: http.StatusBadRequest, want: KindNetwork},
		{status: http.StatusInternalServerError, want: KindServer},
		{status: http.StatusBadGateway, want: KindServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newTestClient(srv.URL, nil)
			env, err := c.Get(context.Background(), "/x", nil)
			assert.Nil(t, env)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.want, reqErr.Kind)
			assert.Equal(t, tt.status, reqErr.Status)
		})
	}
}

func TestRequest_TextFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	}))
	defer srv.Close()

	env, err := newTestClient(srv.URL, nil).Get(context.Background(), "/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", env.Text())
	assert.Equal(t, ResultSuccess, env.Result)
	assert.Equal(t, "OK", env.Message)
	assert.JSONEq(t, `"hello"`, string(env.Data))
}

func TestRequest_GeneralSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil, ResultFail, "GENERAL")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Get(context.Background(), "/x", nil)
	assert.True(t, IsGeneralError(err))
}

func TestRequest_FailEnvelopeIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil, ResultFail, "category not empty")
	}))
	defer srv.Close()

	env, err := newTestClient(srv.URL, nil).Delete(context.Background(), "/admin/deleteCategory", map[string]any{"categoryId": 3})
	require.NoError(t, err)
	assert.False(t, env.OK())
	assert.Equal(t, "category not empty", env.Message)
}

func TestRequest_RetryAfterRefresh(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"title":"hi"}`, string(body))
		if r.Header.Get("Authorization") != "new-token" {
			writeEnvelope(w, nil, ResultFail, "token失效")
			return
		}
		writeEnvelope(w, "saved", ResultSuccess, "ok")
	}))
	defer srv.Close()

	var logins atomic.Int32
	tokens := tokensWith("old-token", AuthenticatorFunc(func(ctx context.Context) (Credential, error) {
		logins.Add(1)
		return Credential{Token: "new-token"}, nil
	}))

	env, err := newTestClient(srv.URL, tokens).Post(context.Background(), "/article/save", map[string]string{"title": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "saved", env.Text())
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, int32(1), logins.Load())

	token, ok := tokens.GetToken(context.Background())
	require.True(t, ok)
	assert.Equal(t, "new-token", token)
}

func TestRequest_SingleRetryBound(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeEnvelope(w, nil, ResultFail, "token失效")
	}))
	defer srv.Close()

	tokens := tokensWith("old", StaticToken("still-bad"))
	_, err := newTestClient(srv.URL, tokens).Get(context.Background(), "/article/getArticleList", nil)

	assert.Equal(t, int32(2), attempts.Load())
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, ErrStillUnauthorized)
}

func TestRequest_RefreshFailureIsAuthError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeEnvelope(w, nil, ResultFail, "token失效")
	}))
	defer srv.Close()

	tokens := tokensWith("old", AuthenticatorFunc(func(ctx context.Context) (Credential, error) {
		return Credential{}, errors.New("wrong password")
	}))
	_, err := newTestClient(srv.URL, tokens).Get(context.Background(), "/x", nil)

	assert.Equal(t, int32(1), attempts.Load())
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestRequest_NoRefreshForLoginOrDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil, ResultFail, "token失效")
	}))
	defer srv.Close()

	var logins atomic.Int32
	auth := AuthenticatorFunc(func(ctx context.Context) (Credential, error) {
		logins.Add(1)
		return Credential{Token: "t"}, nil
	})

	env, err := newTestClient(srv.URL, tokensWith("", auth)).Post(context.Background(), "/user/login", nil)
	require.NoError(t, err)
	assert.False(t, env.OK())

	c := New(Config{BaseURL: srv.URL, WithAuth: true, AutoRefresh: false}, WithTokenManager(tokensWith("", auth)))
	env, err = c.Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.False(t, env.OK())

	assert.Equal(t, int32(0), logins.Load())
}

func TestRequest_Timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(done)

	_, err := newTestClient(srv.URL, nil).Get(context.Background(), "/slow", nil, WithTimeout(20*time.Millisecond))
	assert.True(t, IsTimeoutError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequest_CallerCancellationIsNetworkError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient("http://127.0.0.1:1", nil).Get(ctx, "/x", nil)
	assert.True(t, IsNetworkError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequest_InterceptorOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a", r.Header.Get("X-A"))
		assert.Equal(t, "saw-a", r.Header.Get("X-B"))
		writeEnvelope(w, "v", ResultSuccess, "ok")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	c.Interceptors().AddRequestInterceptor(func(ctx context.Context, cfg *RequestConfig) error {
		cfg.Header.Set("X-A", "a")
		return nil
	})
	c.Interceptors().AddRequestInterceptor(func(ctx context.Context, cfg *RequestConfig) error {
		if cfg.Header.Get("X-A") == "a" {
			cfg.Header.Set("X-B", "saw-a")
		}
		return nil
	})

	var order []string
	c.Interceptors().AddResponseInterceptor(func(ctx context.Context, env *Envelope, cfg *RequestConfig) (*Envelope, error) {
		order = append(order, "first")
		env.Message = "first"
		return env, nil
	})
	c.Interceptors().AddResponseInterceptor(func(ctx context.Context, env *Envelope, cfg *RequestConfig) (*Envelope, error) {
		order = append(order, "second:"+env.Message)
		return env, nil
	})

	_, err := c.Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second:first"}, order)
}

func TestRequest_ErrorInterceptorShortCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	fallback := textEnvelope("cached")
	secondCalled := false
	c.Interceptors().AddErrorInterceptor(func(ctx context.Context, err *RequestError, cfg *RequestConfig) (*Envelope, error) {
		return fallback, nil
	})
	c.Interceptors().AddErrorInterceptor(func(ctx context.Context, err *RequestError, cfg *RequestConfig) (*Envelope, error) {
		secondCalled = true
		return nil, errors.New("should not run")
	})

	env, err := c.Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Same(t, fallback, env)
	assert.False(t, secondCalled)
}

func TestRequest_ErrorInterceptorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	var seen []Kind
	c.Interceptors().AddErrorInterceptor(func(ctx context.Context, err *RequestError, cfg *RequestConfig) (*Envelope, error) {
		seen = append(seen, err.Kind)
		return nil, nil
	})

	_, err := c.Get(context.Background(), "/x", nil)
	assert.True(t, IsNetworkError(err))
	assert.Equal(t, []Kind{KindNetwork}, seen)
}

func TestRequest_RequestInterceptorErrorIsNetworkError(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", nil)
	c.Interceptors().AddRequestInterceptor(func(ctx context.Context, cfg *RequestConfig) error {
		return errors.New("blocked")
	})
	_, err := c.Get(context.Background(), "/x", nil)
	assert.True(t, IsNetworkError(err))
	assert.Contains(t, err.Error(), "blocked")
}

func TestRequest_ContentTypeInference(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		wantType string
		wantBody string
	}{
		{name: "json string", payload: `{"a":1}`, wantType: "application/json", wantBody: `{"a":1}`},
		{name: "plain string", payload: "a=1&b=2", wantType: "application/x-www-form-urlencoded", wantBody: "a=1&b=2"},
		{name: "form values", payload: url.Values{"k": {"v"}}, wantType: "application/x-www-form-urlencoded", wantBody: "k=v"},
		{name: "struct", payload: struct {
			ID int `json:"id"`
		}{ID: 7}, wantType: "application/json", wantBody: `{"id":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantType, r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, tt.wantBody, string(body))
				writeEnvelope(w, nil, ResultSuccess, "ok")
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, nil).Post(context.Background(), "/x", tt.payload)
			require.NoError(t, err)
		})
	}
}

func TestRequest_MultipartBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "cover", r.FormValue("kind"))
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "a.png", header.Filename)
		assert.Equal(t, "PNG", string(content))
		writeEnvelope(w, nil, ResultSuccess, "ok")
	}))
	defer srv.Close()

	body := MultipartBody{
		Fields: map[string]string{"kind": "cover"},
		Files:  []FormFile{{Field: "file", Filename: "a.png", Content: []byte("PNG")}},
	}
	_, err := newTestClient(srv.URL, nil).Post(context.Background(), "/upload", body)
	require.NoError(t, err)
}

func TestRequest_GetNeverSendsBody(t *testing.T) {
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		assert.Empty(t, r.Header.Get("Content-Type"))
		query.Store(r.URL.Query())
		writeEnvelope(w, nil, ResultSuccess, "ok")
	}))
	defer srv.Close()

	tests := []struct {
		name string
		body Body
		want url.Values
	}{
		{name: "form", body: FormBody{"key": {"7"}}, want: url.Values{"page": {"1"}, "key": {"7"}}},
		{name: "raw form", body: RawBody("key=go&key=rust"), want: url.Values{"page": {"1"}, "key": {"go", "rust"}}},
		{name: "params", body: JSONBody{V: Params{"key": 7, "skip": nil}}, want: url.Values{"page": {"1"}, "key": {"7"}}},
	}

	c := newTestClient(srv.URL, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Request(context.Background(), "/article/getArticleList?page=1", WithBody(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, query.Load())
		})
	}
}

func TestRequest_GetBodyWithoutQueryForm(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, nil, ResultSuccess, "ok")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Request(context.Background(), "/x",
		WithMethod(http.MethodGet), WithBody(RawBody(`{"a":1}`)))
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.Equal(t, int32(0), hits.Load())
}

func TestRequest_SkipAuthAndScheme(t *testing.T) {
	var mu sync.Mutex
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Header.Get("Authorization"))
		mu.Unlock()
		writeEnvelope(w, nil, ResultSuccess, "ok")
	}))
	defer srv.Close()

	tokens := tokensWith("tok", nil)
	c := New(Config{BaseURL: srv.URL, WithAuth: true, AuthScheme: "Bearer"}, WithTokenManager(tokens))

	_, err := c.Get(context.Background(), "/a", nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/b", nil, SkipAuth())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer tok", ""}, got)
}

func TestRequest_AbsoluteURLPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/elsewhere", r.URL.Path)
		writeEnvelope(w, nil, ResultSuccess, "ok")
	}))
	defer srv.Close()

	c := newTestClient("http://base.invalid", nil)
	_, err := c.Get(context.Background(), srv.URL+"/elsewhere", nil)
	require.NoError(t, err)
}

func TestRequest_Feedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fb := &recordingFeedback{}
	c := newTestClient(srv.URL, nil)

	_, err := c.Get(context.Background(), "/x", nil, ShowLoading(true), ShowError(true), WithFeedback(fb))
	require.Error(t, err)
	assert.Equal(t, []bool{true, false}, fb.loading)
	assert.Equal(t, []string{DefaultMessages().Server}, fb.toasts)

	_, err = c.Get(context.Background(), "/x", nil, ShowError(true), ErrMessage("could not load"), WithFeedback(fb), Suspense())
	require.Error(t, err)
	assert.Equal(t, []bool{true, false}, fb.loading)
	assert.Equal(t, "could not load", fb.toasts[1])
}
