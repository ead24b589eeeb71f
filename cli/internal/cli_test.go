package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupHome points HOME at a temp dir and writes a CLI config whose current
// context talks to baseURL.
func setupHome(t *testing.T, baseURL string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INKWELL_ENV", "")

	cfg := DefaultConfig()
	cfg.Contexts["dev"].API.BaseURL = baseURL
	cfg.Contexts["dev"].Settings = filepath.Join(home, "missing.yaml")
	require.NoError(t, SaveConfig(cfg))
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": "success", "message": "OK", "data": data})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{time.Minute, "1 minute"},
		{90 * time.Minute, "1 hour and 30 minutes"},
		{26*time.Hour + 2*time.Minute, "1 day, 2 hours and 2 minutes"},
		{-2 * time.Hour, "2 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), "duration %s", tt.in)
	}
}

func TestConfigContexts(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.CurrentContext)
	assert.FileExists(t, filepath.Join(home, ".inkwell"))

	out, err := run(t, "config", "add-context", "staging", "--base-url", "http://staging:5002", "--timezone", "Asia/Shanghai")
	require.NoError(t, err)
	assert.Contains(t, out, `Context "staging" added/updated`)

	_, err = run(t, "config", "use-context", "staging")
	require.NoError(t, err)

	out, err = run(t, "config", "current-context")
	require.NoError(t, err)
	assert.Equal(t, "staging\n", out)

	out, err = run(t, "config", "list-contexts")
	require.NoError(t, err)
	assert.Contains(t, out, "http://staging:5002")

	_, err = run(t, "config", "delete-context", "staging")
	assert.Error(t, err, "current context cannot be deleted")

	_, err = run(t, "config", "use-context", "missing")
	assert.Error(t, err)

	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "prod", "staging"}, cfg.ContextNames())
	assert.Equal(t, "Asia/Shanghai", cfg.Contexts["staging"].Rendering.Timezone)
}

func TestTokenLifecycle(t *testing.T) {
	home := setupHome(t, "http://localhost:5002")

	out, err := run(t, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	_, err = run(t, "auth", "set-token", "tok-abc", "--expires-in", "2h")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".config", "inkwell", "token-dev.json"))

	out, err = run(t, "auth", "token")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc\n", out)

	out, err = run(t, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Context: dev")
	assert.Contains(t, out, "Valid for 1 hour and 59 minutes")

	_, err = run(t, "auth", "logout")
	require.NoError(t, err)

	_, err = run(t, "auth", "token")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/login", r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":"fail","message":"bad credentials"}`))
			return
		}
		writeEnvelope(w, map[string]any{"token": "fresh", "expiresIn": 3600})
	}))
	defer srv.Close()
	setupHome(t, srv.URL)

	_, err := run(t, "auth", "login", "--username", "admin", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")

	out, err := run(t, "auth", "login", "--username", "admin", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully logged in as admin")

	out, err = run(t, "auth", "token")
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", out)
}

func TestCategoriesCommands(t *testing.T) {
	var deleted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/category/getAllCategories":
			writeEnvelope(w, []map[string]any{
				{"id": 1, "name": "Tech", "level": 1, "subCategory": []map[string]any{
					{"id": 2, "father_id": 1, "name": "Go", "level": 2},
				}},
			})
		case "/category/getCategories":
			assert.Equal(t, "1", r.URL.Query().Get("fatherId"))
			writeEnvelope(w, []map[string]any{{"id": 2, "father_id": 1, "name": "Go", "level": 2}})
		case "/admin/deleteCategory":
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "tok", r.Header.Get("Authorization"))
			deleted = true
			writeEnvelope(w, nil)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	setupHome(t, srv.URL)

	out, err := run(t, "categories", "--tree")
	require.NoError(t, err)
	assert.Equal(t, "Tech (1)\n  Go (2)\n", out)

	out, err = run(t, "categories", "--father", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Go")

	_, err = run(t, "auth", "set-token", "tok")
	require.NoError(t, err)

	out, err = run(t, "categories", "delete", "2")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Contains(t, out, "Category 2 deleted")

	_, err = run(t, "categories", "delete", "abc")
	assert.Error(t, err)
}

func TestArticleCommands(t *testing.T) {
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article/getArticleList":
			assert.Equal(t, "golang", r.URL.Query().Get("key"))
			writeEnvelope(w, map[string]any{
				"list":  []map[string]any{{"id": 7, "title": "Channels", "summary": "All about **channels**", "date_publish": published}},
				"total": 1, "page": 1, "pageSize": 10,
			})
		case "/article/getArticleDetail":
			if r.URL.Query().Get("articleId") != "7" {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"result":"fail","message":"article not found"}`))
				return
			}
			writeEnvelope(w, map[string]any{"id": 7, "title": "Channels", "content": "Unbuffered channels block. #go", "date_publish": published})
		case "/article/getArticleRecommendLinks":
			writeEnvelope(w, []map[string]any{{"id": 8, "title": "Select", "url": "/article/8"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	setupHome(t, srv.URL)

	out, err := run(t, "articles", "--key", "golang")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "All about channels")
	assert.Contains(t, out, "Page 1, 1 of 1 articles")

	out, err = run(t, "article", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "# Channels")
	assert.Contains(t, out, "2024-03-01 12:00")
	assert.Contains(t, out, "Tags: go")
	assert.Contains(t, out, "- Select /article/8")

	_, err = run(t, "article", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "article not found")
}

func TestWeatherFallsBackToDefault(t *testing.T) {
	setupHome(t, "http://localhost:5002")

	// No provider keys are configured, so the fixed default is shown.
	out, err := run(t, "weather")
	require.NoError(t, err)
	assert.Contains(t, out, "北京: 晴天 (sunny)")
	assert.Contains(t, out, "Source:      default")
}

func TestTerminalFeedbackToast(t *testing.T) {
	var buf bytes.Buffer
	f := newTerminalFeedback(&buf)

	closed := false
	f.Loading(true, "Loading /x", nil)
	f.Toast("network down", func() { closed = true })

	assert.Equal(t, "✗ network down\n", buf.String(), "loading line is not drawn off-terminal")
	assert.True(t, closed)
}

func TestPromptCredentials(t *testing.T) {
	in := bytes.NewBufferString("ada\nsecret\n")
	var out bytes.Buffer
	user, pass, err := promptCredentials(in, &out, "")
	require.NoError(t, err)
	assert.Equal(t, "ada", user)
	assert.Equal(t, "secret", pass)
	assert.Contains(t, out.String(), "Username: ")
}
