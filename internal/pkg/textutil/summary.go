package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	codeFenceRegex = regexp.MustCompile("(?s)```.*?```")
	imageRegex     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRegex      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]+>`)
	markerRegex    = regexp.MustCompile(`(?m)^\s{0,3}(#{1,6}\s+|>\s?|[-*+]\s+|\d+\.\s+)`)
	emphasisRegex  = regexp.MustCompile("[*_~`]+")
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// PlainText strips common markdown and HTML syntax, keeping the readable
// text on a single line.
func PlainText(markdown string) string {
	s := codeFenceRegex.ReplaceAllString(markdown, " ")
	s = imageRegex.ReplaceAllString(s, "$1")
	s = linkRegex.ReplaceAllString(s, "$1")
	s = htmlTagRegex.ReplaceAllString(s, " ")
	s = markerRegex.ReplaceAllString(s, "")
	s = emphasisRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// Summary returns at most maxRunes runes of the plain text, ending with an
// ellipsis when it was cut.
func Summary(markdown string, maxRunes int) string {
	text := PlainText(markdown)
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
