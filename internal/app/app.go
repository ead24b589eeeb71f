// Package app assembles the API client stack from configuration. The CLI
// and the web front-end both build their collaborators here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devilmonastery/inkwell/internal/blog"
	"github.com/devilmonastery/inkwell/internal/client"
	"github.com/devilmonastery/inkwell/internal/config"
	"github.com/devilmonastery/inkwell/internal/tokenstore"
	"github.com/devilmonastery/inkwell/internal/weather"
)

// App holds a wired client and the services built on it.
type App struct {
	Settings   *config.Config
	HTTPClient *http.Client
	Log        *slog.Logger

	Store   tokenstore.Store
	Tokens  *client.TokenManager
	Client  *client.Client
	Blog    *blog.Service
	Weather *weather.Service
}

type options struct {
	storeName  string
	store      tokenstore.Store
	feedback   client.Feedback
	logger     *slog.Logger
	httpClient *http.Client
}

type Option func(*options)

// WithStoreName scopes the default token file, typically by CLI context.
func WithStoreName(name string) Option {
	return func(o *options) { o.storeName = name }
}

// WithStore uses s instead of opening the configured backend.
func WithStore(s tokenstore.Store) Option {
	return func(o *options) { o.store = s }
}

func WithFeedback(f client.Feedback) Option {
	return func(o *options) { o.feedback = f }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New opens the token store and wires the token manager, client, blog and
// weather services. Close releases the store.
func New(ctx context.Context, settings *config.Config, opts ...Option) (*App, error) {
	o := options{storeName: "default", logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Transport: client.NewMetricsTransport(http.DefaultTransport)}
	}

	store := o.store
	if store == nil {
		var err error
		store, err = tokenstore.Open(ctx, settings.Store, o.storeName)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
	}

	tokens := client.NewTokenManager(store,
		client.WithStorageKeys(settings.Token.StorageKey, settings.Token.ExpireKey),
		client.WithDefaultTTL(settings.Token.ExpiresIn),
		client.WithTokenLogger(o.logger),
	)

	clientOpts := []client.Option{
		client.WithTokenManager(tokens),
		client.WithHTTPClient(o.httpClient),
		client.WithLogger(o.logger),
	}
	if o.feedback != nil {
		clientOpts = append(clientOpts, client.WithDefaultFeedback(o.feedback))
	}
	c := client.New(settings.ClientConfig(), clientOpts...)
	c.Interceptors().AddRequestInterceptor(client.RequestIDInterceptor())

	if auth := Authenticator(settings.Auth, c); auth != nil {
		tokens.SetAuthenticator(auth)
	}

	// Weather results share the token store's redis when there is one.
	var rdb redis.UniversalClient
	prefix := settings.Store.Redis.Prefix
	if r, ok := store.(*tokenstore.Redis); ok {
		rdb = r.Client()
	}

	return &App{
		Settings:   settings,
		HTTPClient: o.httpClient,
		Log:        o.logger,
		Store:      store,
		Tokens:     tokens,
		Client:     c,
		Blog:       blog.NewService(c, blog.WithLogger(o.logger)),
		Weather:    weather.NewFromConfig(settings.Weather, o.httpClient, rdb, prefix),
	}, nil
}

// Authenticator returns the login step selected by cfg.Mode, or nil when
// refresh has nothing to log in with.
func Authenticator(cfg config.AuthConfig, c *client.Client) client.Authenticator {
	switch cfg.Mode {
	case "password":
		return client.NewPasswordLogin(c, cfg.LoginPath, cfg.Username, cfg.Password)
	case "client_credentials":
		if cfg.TokenURL == "" && cfg.Issuer != "" {
			return client.NewDiscoveredClientCredentials(cfg.Issuer, cfg.ClientID, cfg.ClientSecret, cfg.Scopes,
				client.NewDiscoveryCache(nil, time.Hour))
		}
		return client.NewClientCredentials(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes)
	case "static":
		return client.StaticToken(cfg.StaticToken)
	default:
		return nil
	}
}

// ClientFor builds a client whose token record lives in store, sharing the
// app's configuration and transport. The web front-end uses it to act with
// a signed-in admin's session token. The record uses the default storage
// keys and has no authenticator until the caller sets one.
func (a *App) ClientFor(store client.Store, feedback client.Feedback) *client.Client {
	tokens := client.NewTokenManager(store,
		client.WithDefaultTTL(a.Settings.Token.ExpiresIn),
		client.WithTokenLogger(a.Log),
	)
	opts := []client.Option{
		client.WithTokenManager(tokens),
		client.WithHTTPClient(a.HTTPClient),
		client.WithLogger(a.Log),
	}
	if feedback != nil {
		opts = append(opts, client.WithDefaultFeedback(feedback))
	}
	c := client.New(a.Settings.ClientConfig(), opts...)
	c.Interceptors().AddRequestInterceptor(client.RequestIDInterceptor())
	return c
}

// NewRefresher builds the proactive refresher from the token block.
func (a *App) NewRefresher() (*client.Refresher, error) {
	return client.NewRefresher(a.Tokens,
		client.WithRefreshInterval(a.Settings.Token.RefreshInterval),
		client.WithExpiryWindow(a.Settings.Token.RefreshWindow),
	)
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
