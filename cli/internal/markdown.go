package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderMarkdown renders markdown content, using glamour for terminal output or plain text otherwise
func renderMarkdown(markdown, theme string, styled bool) string {
	if !styled {
		return markdown
	}
	if theme == "" {
		theme = "auto"
	}
	rendered, err := glamour.Render(markdown, theme)
	if err != nil {
		// Fall back to plain markdown if rendering fails
		return markdown
	}
	return rendered
}

// printMarkdown renders and prints markdown using the context's theme
func printMarkdown(w io.Writer, markdown, theme string) {
	fmt.Fprint(w, renderMarkdown(markdown, theme, isTerminal(w)))
}

// getTheme returns the theme from the current context, or "auto" if config is unavailable
func getTheme(config *Config) string {
	if config == nil {
		return "auto"
	}

	ctx, err := config.GetCurrentContext()
	if err != nil || ctx.Rendering.Theme == "" {
		return "auto"
	}

	return ctx.Rendering.Theme
}
