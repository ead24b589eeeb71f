package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Context represents a named configuration context (like kubectl contexts)
type Context struct {
	API struct {
		BaseURL    string `yaml:"base_url"`
		AuthScheme string `yaml:"auth_scheme,omitempty"`
	} `yaml:"api"`

	// Settings points at an inkwell.yaml with the full client configuration.
	// Empty uses the default search paths.
	Settings string `yaml:"settings,omitempty"`

	Rendering struct {
		Theme    string `yaml:"theme"`
		Timezone string `yaml:"timezone,omitempty"`
	} `yaml:"rendering"`
}

// Config represents the CLI configuration with multiple contexts
type Config struct {
	CurrentContext string              `yaml:"current-context"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

func newContext(baseURL string) *Context {
	ctx := &Context{}
	ctx.API.BaseURL = baseURL
	ctx.Rendering.Theme = "auto"
	return ctx
}

// DefaultConfig returns the default configuration with "dev" and "prod" contexts
func DefaultConfig() *Config {
	prod := newContext("http://34.92.107.2:5002")
	prod.Rendering.Timezone = "Asia/Shanghai"

	return &Config{
		CurrentContext: "dev",
		Contexts: map[string]*Context{
			"dev":  newContext("http://localhost:5002"),
			"prod": prod,
		},
	}
}

// GetCurrentContext returns the current active context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}

	return ctx, nil
}

// SetCurrentContext sets the current active context
func (c *Config) SetCurrentContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	c.CurrentContext = name
	return nil
}

// AddContext adds or updates a context
func (c *Config) AddContext(name string, ctx *Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	c.Contexts[name] = ctx
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if name == c.CurrentContext {
		return fmt.Errorf("cannot delete current context %q", name)
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	delete(c.Contexts, name)
	return nil
}

// ContextNames returns the context names in sorted order
func (c *Config) ContextNames() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".inkwell"), nil
}

// LoadConfig loads configuration from ~/.inkwell, creating it with
// defaults on first use.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := DefaultConfig()
		if err := SaveConfig(defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultConfig, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure we have a valid current context
	if config.CurrentContext == "" && len(config.Contexts) > 0 {
		config.CurrentContext = config.ContextNames()[0]
	}

	return &config, nil
}

// SaveConfig saves configuration to ~/.inkwell
func SaveConfig(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
