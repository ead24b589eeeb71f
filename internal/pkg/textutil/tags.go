package textutil

import (
	"regexp"
	"sort"
	"strings"
)

// tagRegex matches #tags that start a word. Letters of any script, digits,
// underscores and hyphens are allowed, so #并发 and #go-1.22 style tags work
// while URL fragments and headings ("# Title") do not.
var tagRegex = regexp.MustCompile(`(?:^|[\s(（])#([\p{L}\p{N}_-]+)`)

// ExtractTags parses #tags from article content.
// Returns a sorted list of unique, lower-cased tags
func ExtractTags(text string) []string {
	matches := tagRegex.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool)
	tags := make([]string, 0, len(matches))
	for _, match := range matches {
		tag := strings.ToLower(match[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	sort.Strings(tags)
	return tags
}
