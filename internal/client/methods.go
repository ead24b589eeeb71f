package client

import (
	"context"
	"net/http"
)

// Get serializes params into the query string. GET never carries a body.
func (c *Client) Get(ctx context.Context, path string, params Params, opts ...CallOption) (*Envelope, error) {
	return c.Request(ctx, path, prepend(opts, WithMethod(http.MethodGet), WithQuery(params.Values()))...)
}

// Post sends payload as the body: Body values as-is, url.Values as a form,
// strings raw, anything else as JSON.
func (c *Client) Post(ctx context.Context, path string, payload any, opts ...CallOption) (*Envelope, error) {
	return c.send(ctx, http.MethodPost, path, payload, opts)
}

func (c *Client) Put(ctx context.Context, path string, payload any, opts ...CallOption) (*Envelope, error) {
	return c.send(ctx, http.MethodPut, path, payload, opts)
}

func (c *Client) Patch(ctx context.Context, path string, payload any, opts ...CallOption) (*Envelope, error) {
	return c.send(ctx, http.MethodPatch, path, payload, opts)
}

func (c *Client) Delete(ctx context.Context, path string, payload any, opts ...CallOption) (*Envelope, error) {
	return c.send(ctx, http.MethodDelete, path, payload, opts)
}

func (c *Client) send(ctx context.Context, method, path string, payload any, opts []CallOption) (*Envelope, error) {
	return c.Request(ctx, path, prepend(opts, WithMethod(method), WithBody(payloadBody(payload)))...)
}

// prepend puts the helper's options first so callers can still override them.
func prepend(opts []CallOption, first ...CallOption) []CallOption {
	return append(first, opts...)
}
