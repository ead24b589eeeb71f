package client

import (
	"net/http"
	"net/url"
	"time"
)

// RequestConfig is the per-call configuration seen by request interceptors.
// It starts from the client defaults and is modified by CallOptions.
type RequestConfig struct {
	Method string

	// URL is the path relative to the base URL, or an absolute http(s) URL.
	URL    string
	Query  url.Values
	Header http.Header
	Body   Body

	Timeout     time.Duration
	ShowLoading bool
	ShowError   bool
	SkipAuth    bool

	// ErrMessage overrides the user-facing message of a failure.
	ErrMessage string

	// Feedback overrides the client's feedback surface for this call.
	Feedback Feedback

	// noRefresh is set on login calls, which run inside a refresh.
	noRefresh bool
}

type CallOption func(*RequestConfig)

func WithMethod(method string) CallOption {
	return func(c *RequestConfig) { c.Method = method }
}

func WithBody(body Body) CallOption {
	return func(c *RequestConfig) { c.Body = body }
}

func WithHeader(key, value string) CallOption {
	return func(c *RequestConfig) { c.Header.Set(key, value) }
}

func WithQuery(values url.Values) CallOption {
	return func(c *RequestConfig) {
		for k, vs := range values {
			for _, v := range vs {
				c.Query.Add(k, v)
			}
		}
	}
}

func WithTimeout(d time.Duration) CallOption {
	return func(c *RequestConfig) { c.Timeout = d }
}

func ShowLoading(show bool) CallOption {
	return func(c *RequestConfig) { c.ShowLoading = show }
}

func ShowError(show bool) CallOption {
	return func(c *RequestConfig) { c.ShowError = show }
}

func SkipAuth() CallOption {
	return func(c *RequestConfig) { c.SkipAuth = true }
}

func withoutRefresh() CallOption {
	return func(c *RequestConfig) { c.noRefresh = true }
}

// Suspense disables the loading indicator for callers that render their own.
func Suspense() CallOption {
	return ShowLoading(false)
}

func ErrMessage(msg string) CallOption {
	return func(c *RequestConfig) { c.ErrMessage = msg }
}

func WithFeedback(f Feedback) CallOption {
	return func(c *RequestConfig) { c.Feedback = f }
}
