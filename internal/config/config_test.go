package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inkwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveEnvironment(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		envVar string
		want   string
	}{
		{name: "default is development", want: EnvDevelopment},
		{name: "file value", file: EnvProduction, want: EnvProduction},
		{name: "env var wins", file: EnvProduction, envVar: EnvTest, want: EnvTest},
		{name: "unknown falls back", file: "staging", want: EnvDevelopment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvVar, tt.envVar)
			cfg := Default()
			cfg.Environment = tt.file
			assert.Equal(t, tt.want, cfg.ResolveEnvironment())
		})
	}
}

func TestBaseURLPerEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg := Default()

	cfg.Environment = EnvDevelopment
	assert.Equal(t, "http://localhost:5002", cfg.BaseURL())

	cfg.Environment = EnvProduction
	assert.Equal(t, "http://34.92.107.2:5002", cfg.BaseURL())

	cfg.Environment = EnvTest
	assert.Equal(t, cfg.API.BaseURLs[EnvProduction], cfg.BaseURL())

	cfg.API.BaseURL = "https://blog.example.com/api"
	assert.Equal(t, "https://blog.example.com/api", cfg.BaseURL())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")
	t.Setenv("INKWELL_TEST_PASSWORD", "s3cret")

	path := writeConfig(t, `
environment: production
api:
  timeout: 3s
  auth_scheme: Bearer
token:
  expires_in: 2h
errors:
  messages:
    auth: please sign in
auth:
  mode: password
  username: admin
  password: ${INKWELL_TEST_PASSWORD}
store:
  backend: file
  file:
    path: /tmp/inkwell-token.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Token.ExpiresIn)
	assert.Equal(t, "s3cret", cfg.Auth.Password)
	assert.Equal(t, "please sign in", cfg.Errors.Messages.Auth)
	assert.Equal(t, "token失效", cfg.Sentinels.TokenExpired, "defaults survive partial files")
	assert.True(t, cfg.Token.AutoRefresh)

	cc := cfg.ClientConfig()
	assert.Equal(t, "http://34.92.107.2:5002", cc.BaseURL)
	assert.Equal(t, "Bearer", cc.AuthScheme)
	assert.Equal(t, 3*time.Second, cc.Timeout)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad store", content: "store:\n  backend: s3\n"},
		{name: "password without user", content: "auth:\n  mode: password\n"},
		{name: "client credentials without url", content: "auth:\n  mode: client_credentials\n"},
		{name: "non http base", content: "api:\n  base_url: ftp://example.com\n"},
		{name: "bad yaml", content: "api: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvVar, "")
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
