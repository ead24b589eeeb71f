package urlutil

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gosimple/slug"
)

// Slug returns a URL-safe slug for title, or fallback when title has no
// usable characters.
func Slug(title, fallback string) string {
	s := slug.Make(title)
	if s == "" {
		return fallback
	}
	return s
}

// ArticlePath builds the web path for an article.
// Returns a path like: /article/{id}/{slug}
func ArticlePath(id int64, title string) string {
	return fmt.Sprintf("/article/%d/%s", id, Slug(title, "article"))
}

// CategoryPath builds the web path for a category listing.
// Returns a path like: /category/{id}/{slug}
func CategoryPath(id int64, name string) string {
	return fmt.Sprintf("/category/%d/%s", id, Slug(name, "category"))
}

// SearchPath builds the article search path for keyword and page.
// Page values below 2 are omitted.
func SearchPath(keyword string, page int) string {
	q := url.Values{}
	if keyword != "" {
		q.Set("key", keyword)
	}
	if page > 1 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// BuildArticleURL builds an absolute web URL for an article.
// Returns a URL like: {baseURL}/article/{id}/{slug}
func BuildArticleURL(baseURL string, id int64, title string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + ArticlePath(id, title)
	return u.String(), nil
}
