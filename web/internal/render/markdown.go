package render

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var policy = bluemonday.UGCPolicy()

// Markdown converts markdown text to safe HTML for use in templates
func Markdown(markdown string) template.HTML {
	unsafe := blackfriday.Run([]byte(markdown))

	// Sanitize the HTML to prevent XSS
	return template.HTML(policy.SanitizeBytes(unsafe))
}

// Content renders an article body. Articles written in the rich text editor
// are stored as HTML and only sanitized; everything else is markdown.
func Content(body, textType string) template.HTML {
	if strings.EqualFold(textType, "html") {
		return template.HTML(policy.Sanitize(body))
	}
	return Markdown(body)
}
