package blog

import (
	"bytes"
	"encoding/json"
	"time"
)

// Category is a node of the category tree. Leaves have a nil SubCategory.
type Category struct {
	ID          int64       `json:"id"`
	FatherID    int64       `json:"father_id"`
	Level       int         `json:"level"`
	Name        string      `json:"name"`
	SubCategory []*Category `json:"subCategory"`
}

// Article is the full article as returned by the detail endpoint.
type Article struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	CategoryID  int64  `json:"categoryId"`
	CreateTime  string `json:"createTime"`
	UpdateTime  string `json:"updateTime"`
	DatePublish int64  `json:"date_publish"` // unix milliseconds
	TextType    string `json:"text_type"`
}

// Published returns the publish time, or the zero time when unset.
func (a *Article) Published() time.Time {
	return publishedAt(a.DatePublish)
}

type ArticleListItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	CategoryID  int64  `json:"categoryId"`
	CreateTime  string `json:"createTime"`
	DatePublish int64  `json:"date_publish"`
}

func (a *ArticleListItem) Published() time.Time {
	return publishedAt(a.DatePublish)
}

type RecommendLink struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// UnmarshalJSON accepts both the paginated object and a bare array. A bare
// array is treated as a single complete page.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*p = Page[T]{List: list, Total: int64(len(list)), Page: 1, PageSize: len(list)}
		return nil
	}

	type plain Page[T]
	var out plain
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return err
	}
	*p = Page[T](out)
	return nil
}

// ListQuery filters the article list. Zero values are omitted from the request.
type ListQuery struct {
	Key      string // category id or search keyword
	Page     int
	PageSize int
}

func publishedAt(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
