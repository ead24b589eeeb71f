package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/devilmonastery/inkwell/internal/pkg/textutil"
	"github.com/devilmonastery/inkwell/internal/pkg/timeutil"
	"github.com/devilmonastery/inkwell/internal/pkg/urlutil"
	"github.com/devilmonastery/inkwell/internal/weather"
)

// Version is stamped at build time with -ldflags "-X ...render.Version=..."
var Version = "dev"

//go:embed templates
var embedded embed.FS

// TemplateSet holds all parsed page templates
// Each page is stored as a completely separate template.Template
// to avoid {{define "content"}} block collisions
type TemplateSet struct {
	pages map[string]*template.Template
	mu    sync.RWMutex
}

// Execute renders the specified page template
// pageName should be the filename like "article.html"
// This method always executes the "base" layout, which will use the
// {{define "content"}}, {{define "title"}}, etc. blocks from the specific page
func (ts *TemplateSet) Execute(w io.Writer, pageName string, data interface{}) error {
	ts.mu.RLock()
	tmpl, ok := ts.pages[pageName]
	ts.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %q not found", pageName)
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}

// ExecuteTemplate executes a named template (like "weather-widget") from a specific page's template set
func (ts *TemplateSet) ExecuteTemplate(w io.Writer, pageName string, templateName string, data interface{}) error {
	ts.mu.RLock()
	tmpl, ok := ts.pages[pageName]
	ts.mu.RUnlock()

	if !ok {
		return fmt.Errorf("page template %q not found", pageName)
	}

	return tmpl.ExecuteTemplate(w, templateName, data)
}

// Has checks if a template exists
func (ts *TemplateSet) Has(pageName string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	_, ok := ts.pages[pageName]
	return ok
}

// Names returns all available template names, sorted
func (ts *TemplateSet) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	names := make([]string, 0, len(ts.pages))
	for name := range ts.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var weatherIcons = map[weather.Type]string{
	weather.Sunny:     "☀️",
	weather.Rainy:     "🌧️",
	weather.Snowy:     "❄️",
	weather.Cloudy:    "☁️",
	weather.Foggy:     "🌫️",
	weather.Windy:     "💨",
	weather.Sandstorm: "🌪️",
}

// FuncMap returns the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"renderMarkdown": Markdown,
		"renderContent":  Content,
		"summary":        textutil.Summary,
		"tags":           textutil.ExtractTags,
		"formatDate": func(ms int64, tz string) string {
			return timeutil.FormatMillis(ms, tz, timeutil.DateLayout)
		},
		"formatDateTime": func(ms int64, tz string) string {
			return timeutil.FormatMillis(ms, tz, timeutil.DateTimeLayout)
		},
		"ago": func(ms int64) string {
			t := timeutil.FromMillis(ms)
			if t.IsZero() {
				return ""
			}
			return timeutil.Ago(t, time.Now())
		},
		"articlePath":  urlutil.ArticlePath,
		"categoryPath": urlutil.CategoryPath,
		"searchPath":   urlutil.SearchPath,
		"weatherIcon": func(t weather.Type) string {
			if icon, ok := weatherIcons[t]; ok {
				return icon
			}
			return weatherIcons[weather.Sunny]
		},
		"dict": func(values ...interface{}) map[string]interface{} {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"version": func() string {
			return Version
		},
	}
}

// LoadTemplates parses all page templates from dir. An empty dir uses the
// templates embedded in the binary.
// Returns a TemplateSet where each page is completely isolated
func LoadTemplates(dir string) (*TemplateSet, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	return LoadTemplatesFS(fsys)
}

// LoadTemplatesFS parses layouts/base.html, components/*.html and each
// pages/*.html from fsys.
func LoadTemplatesFS(fsys fs.FS) (*TemplateSet, error) {
	funcMap := FuncMap()

	componentFiles, err := fs.Glob(fsys, "components/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list component templates: %w", err)
	}

	pageFiles, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}

	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("no page templates found in pages/")
	}

	ts := &TemplateSet{
		pages: make(map[string]*template.Template),
	}

	// Parse each page into its OWN completely isolated template
	for _, pageFile := range pageFiles {
		pageName := path.Base(pageFile)

		// Build list of files: base + components + this page ONLY
		filesToParse := []string{"layouts/base.html"}
		filesToParse = append(filesToParse, componentFiles...)
		filesToParse = append(filesToParse, pageFile)

		pageTemplate, err := template.New("base").Funcs(funcMap).ParseFS(fsys, filesToParse...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", pageName, err)
		}

		ts.pages[pageName] = pageTemplate
	}

	return ts, nil
}

// LogTemplateNames logs all available template names
func LogTemplateNames(ts *TemplateSet, logger *slog.Logger) {
	logger.Debug("loaded templates", slog.Any("names", ts.Names()))
}
