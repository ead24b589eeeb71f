package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/devilmonastery/inkwell/internal/pkg/logger"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// WebServerConfig represents the web server configuration
type WebServerConfig struct {
	Server    HTTPServer        `yaml:"server"`
	Settings  string            `yaml:"settings"` // path to the inkwell.yaml client configuration
	Session   SessionConfig     `yaml:"session"`
	Templates TemplatesConfig   `yaml:"templates"`
	Site      SiteConfig        `yaml:"site"`
	Logging   logger.FileConfig `yaml:"logging"`
}

// HTTPServer holds HTTP server configuration
type HTTPServer struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SessionConfig holds session configuration
type SessionConfig struct {
	Secret string `yaml:"secret"` // 32-byte base64-encoded
	Secure bool   `yaml:"secure"` // set behind HTTPS
}

// TemplatesConfig holds template loading configuration
type TemplatesConfig struct {
	Path string `yaml:"path"` // empty uses the embedded templates
}

// SiteConfig holds page presentation settings
type SiteConfig struct {
	Title    string `yaml:"title"`
	PageSize int    `yaml:"page_size"`
	Timezone string `yaml:"timezone"`
}

// Addr returns the listen address.
func (c *WebServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DefaultConfigPaths defines the default locations to search for web configuration files
var DefaultConfigPaths = []string{
	"./web.yaml",
	"./web.yml",
	"./configs/web.yaml",
	"./configs/web.yml",
	"/etc/inkwell/web.yaml",
}

// Default returns the configuration used when no file is present.
func Default() *WebServerConfig {
	return &WebServerConfig{
		Server: HTTPServer{
			Port: 8080,
		},
		Site: SiteConfig{
			Title:    "Inkwell",
			PageSize: 10,
			Timezone: "Asia/Shanghai",
		},
		Logging: logger.FileConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads the web server configuration from the specified file or default locations
func Load(configPath string) (*WebServerConfig, error) {
	config := Default()

	// If no config path is provided, search in default locations
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(expandEnvVars(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables take precedence
	if settings := os.Getenv("INKWELL_SETTINGS"); settings != "" {
		config.Settings = settings
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
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
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// validate performs basic validation on the web configuration
func validate(config *WebServerConfig) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if config.Site.PageSize < 1 {
		return fmt.Errorf("site.page_size must be positive")
	}
	return nil
}
