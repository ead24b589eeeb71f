package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

const DefaultTimeout = 10 * time.Second

// Config holds the flat settings the executor consumes. It is usually built
// from internal/config.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string

	// WithAuth attaches the current token to requests that do not skip auth.
	WithAuth bool

	// AuthScheme prefixes the token in the Authorization header. Empty sends
	// the bare token, which is what the blog API expects.
	AuthScheme string

	AutoRefresh bool
	ShowLoading bool
	ShowError   bool
	LogErrors   bool

	// LoadingText prefixes the path in loading indicator messages.
	LoadingText string

	Messages  Messages
	Sentinels Sentinels
}

// Client executes blog API calls. Its collaborators are injected so several
// independent clients can coexist.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	tokens       *TokenManager
	interceptors *Interceptors
	feedback     Feedback
	log          *slog.Logger
}

type Option func(*Client)

func WithTokenManager(tm *TokenManager) Option {
	return func(c *Client) { c.tokens = tm }
}

func WithInterceptors(i *Interceptors) Option {
	return func(c *Client) { c.interceptors = i }
}

func WithDefaultFeedback(f Feedback) Option {
	return func(c *Client) { c.feedback = f }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// New creates a client. Unset collaborators get working defaults: an HTTP
// client with the metrics transport, empty interceptor chains and logging
// feedback.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.LoadingText == "" {
		cfg.LoadingText = "Loading"
	}
	if cfg.Sentinels == (Sentinels{}) {
		cfg.Sentinels = DefaultSentinels()
	}
	cfg.Messages = cfg.Messages.withDefaults()

	c := &Client{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: NewMetricsTransport(http.DefaultTransport)}
	}
	if c.interceptors == nil {
		c.interceptors = NewInterceptors()
	}
	if c.feedback == nil {
		c.feedback = LogFeedback{Logger: c.log}
	}
	c.log = c.log.With(slog.String("component", "api-client"))
	return c
}

func (c *Client) Interceptors() *Interceptors { return c.interceptors }

func (c *Client) Tokens() *TokenManager { return c.tokens }

func (c *Client) BaseURL() string { return c.cfg.BaseURL }

func (c *Client) newRequestConfig(path string) RequestConfig {
	header := http.Header{}
	for k, v := range c.cfg.Headers {
		header.Set(k, v)
	}
	return RequestConfig{
		Method:      http.MethodGet,
		URL:         path,
		Query:       url.Values{},
		Header:      header,
		Timeout:     c.cfg.Timeout,
		ShowLoading: c.cfg.ShowLoading,
		ShowError:   c.cfg.ShowError,
	}
}

// Request performs one logical call. The returned error is always a
// *RequestError unless an error interceptor replaced it.
func (c *Client) Request(ctx context.Context, path string, opts ...CallOption) (*Envelope, error) {
	cfg := c.newRequestConfig(path)
	for _, opt := range opts {
		opt(&cfg)
	}

	feedback := cfg.Feedback
	if feedback == nil {
		feedback = c.feedback
	}
	if cfg.ShowLoading {
		feedback.Loading(true, c.cfg.LoadingText+" "+path, nil)
		defer feedback.Loading(false, "", nil)
	}

	env, err := c.do(ctx, &cfg)
	if err != nil {
		return c.handleError(ctx, err, &cfg, feedback)
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, cfg *RequestConfig) (*Envelope, error) {
	if err := c.interceptors.applyRequest(ctx, cfg); err != nil {
		return nil, fmt.Errorf("request interceptor: %w", err)
	}

	var payload []byte
	var contentType string
	switch {
	case cfg.Body == nil:
	case cfg.Method == http.MethodGet || cfg.Method == http.MethodHead:
		if err := bodyToQuery(cfg); err != nil {
			return nil, err
		}
	default:
		var err error
		payload, contentType, err = cfg.Body.Encode()
		if err != nil {
			return nil, err
		}
	}

	env, err := c.attempt(ctx, cfg, payload, contentType, c.authToken(ctx, cfg))
	if err != nil {
		return nil, err
	}

	if c.needsRefresh(cfg, env) {
		c.log.Info("token rejected, refreshing", slog.String("url", cfg.URL))
		res := c.tokens.RefreshToken(ctx)
		if !res.Success {
			return nil, &RequestError{Kind: KindAuth, URL: cfg.URL, Message: res.Error, Err: ErrRefreshFailed}
		}

		metrics.APIRetries.Inc()
		token := ""
		if c.authApplies(cfg) {
			token = res.Token
		}
		env, err = c.attempt(ctx, cfg, payload, contentType, token)
		if err != nil {
			return nil, err
		}
		if c.cfg.Sentinels.Classify(env) == SignalTokenExpired {
			return nil, &RequestError{Kind: KindAuth, URL: cfg.URL, Message: env.Message, Err: ErrStillUnauthorized}
		}
	}

	return c.interceptors.applyResponse(ctx, env, cfg)
}

// bodyToQuery moves a GET or HEAD body into the query string.
func bodyToQuery(cfg *RequestConfig) error {
	values, ok := queryValues(cfg.Body)
	if !ok {
		return newRequestError(KindNetwork, 0, cfg.URL,
			fmt.Sprintf("%s request body cannot be sent as query parameters", cfg.Method), nil)
	}
	query := url.Values{}
	for k, vs := range cfg.Query {
		query[k] = append([]string(nil), vs...)
	}
	for k, vs := range values {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	cfg.Query = query
	cfg.Body = nil
	return nil
}

func (c *Client) needsRefresh(cfg *RequestConfig, env *Envelope) bool {
	if !c.cfg.AutoRefresh || c.tokens == nil || cfg.noRefresh {
		return false
	}
	marker := c.cfg.Sentinels.LoginMarker
	if marker != "" && strings.Contains(cfg.URL, marker) {
		return false
	}
	return c.cfg.Sentinels.Classify(env) == SignalTokenExpired
}

func (c *Client) authApplies(cfg *RequestConfig) bool {
	return !cfg.SkipAuth && c.cfg.WithAuth && c.tokens != nil
}

func (c *Client) authToken(ctx context.Context, cfg *RequestConfig) string {
	if !c.authApplies(cfg) {
		return ""
	}
	token, _ := c.tokens.GetToken(ctx)
	return token
}

// attempt issues a single network call bounded by the configured timeout.
func (c *Client) attempt(ctx context.Context, cfg *RequestConfig, payload []byte, contentType, token string) (*Envelope, error) {
	target, err := c.buildURL(cfg)
	if err != nil {
		return nil, newRequestError(KindNetwork, 0, cfg.URL, "invalid request URL", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, cfg.Method, target, body)
	if err != nil {
		return nil, newRequestError(KindNetwork, 0, target, "invalid request", err)
	}
	req.Header = c.buildHeaders(cfg, contentType, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newRequestError(classifyStatus(resp.StatusCode), resp.StatusCode, target,
			fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	var env *Envelope
	if strings.Contains(resp.Header.Get("Content-Type"), contentTypeJSON) {
		env = &Envelope{}
		if err := json.Unmarshal(raw, env); err != nil {
			return nil, newRequestError(KindNetwork, resp.StatusCode, target, "invalid JSON response", err)
		}
	} else {
		env = textEnvelope(string(raw))
	}

	if c.cfg.Sentinels.Classify(env) == SignalGeneral {
		return nil, newRequestError(KindGeneral, resp.StatusCode, target, env.Message, nil)
	}
	return env, nil
}

func transportError(target string, err error) *RequestError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newRequestError(KindTimeout, 0, target, "request timed out", err)
	}
	return newRequestError(KindNetwork, 0, target, err.Error(), err)
}

// buildURL passes absolute URLs through and joins relative paths to the
// base URL, then merges the query.
func (c *Client) buildURL(cfg *RequestConfig) (string, error) {
	raw := cfg.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(raw, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(cfg.Query) > 0 {
		q := u.Query()
		for k, vs := range cfg.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) buildHeaders(cfg *RequestConfig, contentType, token string) http.Header {
	h := cfg.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if contentType != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}
	if token != "" {
		if c.cfg.AuthScheme != "" {
			token = c.cfg.AuthScheme + " " + token
		}
		h.Set("Authorization", token)
	}
	return h
}

func (c *Client) handleError(ctx context.Context, err error, cfg *RequestConfig, feedback Feedback) (*Envelope, error) {
	reqErr := AsRequestError(err)
	if reqErr.URL == "" {
		reqErr.URL = cfg.URL
	}
	if reqErr.Override == "" {
		reqErr.Override = cfg.ErrMessage
	}
	metrics.APIErrors.WithLabelValues(reqErr.Kind.String()).Inc()

	if c.cfg.LogErrors {
		LogError(c.log, reqErr)
	}
	if cfg.ShowError {
		feedback.Toast(Message(reqErr, c.cfg.Messages), nil)
	}

	env, handled, ierr := c.interceptors.applyError(ctx, reqErr, cfg)
	if handled {
		if ierr != nil {
			return nil, ierr
		}
		return env, nil
	}
	return nil, reqErr
}
