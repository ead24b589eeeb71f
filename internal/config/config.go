package config

import (
	"fmt"
	"os"
	"time"

	"github.com/devilmonastery/inkwell/internal/client"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// EnvVar selects the environment, overriding the config file.
	EnvVar = "INKWELL_ENV"
)

// Config is the blog API client configuration shared by the CLI and web
// front-end.
type Config struct {
	Environment string           `yaml:"environment"` // development, test, production
	API         APIConfig        `yaml:"api"`
	Token       TokenConfig      `yaml:"token"`
	Errors      ErrorConfig      `yaml:"errors"`
	UI          UIConfig         `yaml:"ui"`
	Sentinels   client.Sentinels `yaml:"sentinels"`
	Store       StoreConfig      `yaml:"store"`
	Auth        AuthConfig       `yaml:"auth"`
	Weather     WeatherConfig    `yaml:"weather"`
}

// APIConfig holds the request executor defaults
type APIConfig struct {
	BaseURLs    map[string]string `yaml:"base_urls"` // per environment
	BaseURL     string            `yaml:"base_url"`  // overrides base_urls when set
	Timeout     time.Duration     `yaml:"timeout"`
	Headers     map[string]string `yaml:"headers"`
	WithAuth    bool              `yaml:"with_auth"`
	AuthScheme  string            `yaml:"auth_scheme"` // empty sends the bare token
	ShowLoading bool              `yaml:"show_loading"`
	ShowError   bool              `yaml:"show_error"`
}

// TokenConfig holds token storage and refresh settings
type TokenConfig struct {
	StorageKey  string        `yaml:"storage_key"`
	ExpireKey   string        `yaml:"expire_key"`
	ExpiresIn   time.Duration `yaml:"expires_in"`
	AutoRefresh bool          `yaml:"auto_refresh"`

	// Proactive refresh, used by long-running processes
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RefreshWindow   time.Duration `yaml:"refresh_window"`
}

type ErrorConfig struct {
	Messages  client.Messages `yaml:"messages"`
	LogErrors bool            `yaml:"log_errors"`
}

type UIConfig struct {
	LoadingText   string        `yaml:"loading_text"`
	ToastDuration time.Duration `yaml:"toast_duration"`
}

// StoreConfig selects where the token record is persisted
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // memory, file, redis, postgres
	File     FileConfig     `yaml:"file"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type FileConfig struct {
	Path          string `yaml:"path"`
	EncryptionKey string `yaml:"encryption_key"` // passphrase; empty stores plaintext
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"` // disable, require, verify-ca, verify-full
}

// AuthConfig selects the login step behind token refresh
type AuthConfig struct {
	Mode string `yaml:"mode"` // none, password, client_credentials, static

	LoginPath string `yaml:"login_path"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`

	TokenURL     string   `yaml:"token_url"`
	Issuer       string   `yaml:"issuer"` // discovers token_url when it is unset
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes,omitempty"`

	StaticToken string `yaml:"static_token"`
}

type WeatherConfig struct {
	QWeatherHost    string        `yaml:"qweather_host"`
	QWeatherKey     string        `yaml:"qweather_key"`
	OpenWeatherHost string        `yaml:"openweather_host"`
	OpenWeatherKey  string        `yaml:"openweather_key"`
	Location        string        `yaml:"location"` // QWeather location ID
	Lat             float64       `yaml:"lat"`
	Lon             float64       `yaml:"lon"`
	Timeout         time.Duration `yaml:"timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

// ConnectionString returns the PostgreSQL connection string
func (p *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Environment: EnvDevelopment,
		API: APIConfig{
			BaseURLs: map[string]string{
				EnvProduction:  "http://34.92.107.2:5002",
				EnvTest:        "http://34.92.107.2:5002",
				EnvDevelopment: "http://localhost:5002",
			},
			Timeout:   client.DefaultTimeout,
			Headers:   map[string]string{"Accept": "application/json"},
			WithAuth:  true,
			ShowError: true,
		},
		Token: TokenConfig{
			StorageKey:      client.DefaultTokenKey,
			ExpireKey:       client.DefaultExpireKey,
			ExpiresIn:       client.DefaultTokenTTL,
			AutoRefresh:     true,
			RefreshInterval: time.Minute,
			RefreshWindow:   5 * time.Minute,
		},
		Errors: ErrorConfig{
			Messages:  client.DefaultMessages(),
			LogErrors: true,
		},
		UI: UIConfig{
			LoadingText:   "Loading",
			ToastDuration: 3 * time.Second,
		},
		Sentinels: client.DefaultSentinels(),
		Store: StoreConfig{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "inkwell:"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "inkwell",
				User:     "postgres",
				SSLMode:  "disable",
			},
		},
		Auth: AuthConfig{
			Mode:      "none",
			LoginPath: client.DefaultLoginPath,
		},
		Weather: WeatherConfig{
			QWeatherHost:    "https://devapi.qweather.com",
			OpenWeatherHost: "https://api.openweathermap.org",
			Location:        "101010100",
			Lat:             39.9042,
			Lon:             116.4074,
			Timeout:         5 * time.Second,
			CacheTTL:        10 * time.Minute,
		},
	}
}

// ResolveEnvironment applies the INKWELL_ENV override. Unknown or empty
// values fall back to development.
func (c *Config) ResolveEnvironment() string {
	env := c.Environment
	if v := os.Getenv(EnvVar); v != "" {
		env = v
	}
	switch env {
	case EnvProduction, EnvTest:
		return env
	default:
		return EnvDevelopment
	}
}

// BaseURL returns the API base URL for the active environment.
func (c *Config) BaseURL() string {
	if c.API.BaseURL != "" {
		return c.API.BaseURL
	}
	return c.API.BaseURLs[c.ResolveEnvironment()]
}

// ClientConfig flattens the settings the request executor consumes.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:     c.BaseURL(),
		Timeout:     c.API.Timeout,
		Headers:     c.API.Headers,
		WithAuth:    c.API.WithAuth,
		AuthScheme:  c.API.AuthScheme,
		AutoRefresh: c.Token.AutoRefresh,
		ShowLoading: c.API.ShowLoading,
		ShowError:   c.API.ShowError,
		LogErrors:   c.Errors.LogErrors,
		LoadingText: c.UI.LoadingText,
		Messages:    c.Errors.Messages,
		Sentinels:   c.Sentinels,
	}
}
