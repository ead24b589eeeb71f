package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./inkwell.yaml",
	"./inkwell.yml",
	"./configs/inkwell.yaml",
	"./configs/development.yaml",
	"/etc/inkwell/config.yaml",
}

// Load loads the configuration from the specified file or default locations.
// Values missing from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	config := Default()

	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		slog.Debug("loading config", slog.String("component", "config"), slog.String("path", configPath))
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(expandEnvVars(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		slog.Debug("no config file found, using defaults", slog.String("component", "config"))
	}

	config.Environment = config.ResolveEnvironment()

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate performs basic validation on the configuration
func validate(config *Config) error {
	base := config.BaseURL()
	if base == "" {
		return fmt.Errorf("no api base url for environment %q", config.Environment)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("api base url must be http(s): %q", base)
	}
	if config.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	switch config.Store.Backend {
	case "memory", "file", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}
	if config.Store.Backend == "redis" && config.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required for the redis backend")
	}
	if config.Store.Backend == "postgres" && config.Store.Postgres.Host == "" {
		return fmt.Errorf("store.postgres.host is required for the postgres backend")
	}

	switch config.Auth.Mode {
	case "", "none":
	case "password":
		if config.Auth.Username == "" {
			return fmt.Errorf("auth.username is required for password login")
		}
	case "client_credentials":
		if (config.Auth.TokenURL == "" && config.Auth.Issuer == "") || config.Auth.ClientID == "" {
			return fmt.Errorf("auth.client_id and auth.token_url or auth.issuer are required for client credentials")
		}
	case "static":
		if config.Auth.StaticToken == "" {
			return fmt.Errorf("auth.static_token is required for static auth")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", config.Auth.Mode)
	}

	return nil
}
