package client

import (
	"context"
	"sync"
)

// RequestInterceptor transforms the outgoing request configuration.
type RequestInterceptor func(ctx context.Context, cfg *RequestConfig) error

// ResponseInterceptor transforms a successfully parsed response.
type ResponseInterceptor func(ctx context.Context, env *Envelope, cfg *RequestConfig) (*Envelope, error)

// ErrorInterceptor observes a failed call. Returning a non-nil envelope
// recovers the call with that value. Returning an error replaces the
// original failure and stops the chain. Returning (nil, nil) passes.
type ErrorInterceptor func(ctx context.Context, err *RequestError, cfg *RequestConfig) (*Envelope, error)

// Interceptors holds the ordered interceptor chains of a Client.
// Registration is append-only and safe for concurrent use.
type Interceptors struct {
	mu       sync.RWMutex
	request  []RequestInterceptor
	response []ResponseInterceptor
	errors   []ErrorInterceptor
}

func NewInterceptors() *Interceptors {
	return &Interceptors{}
}

func (i *Interceptors) AddRequestInterceptor(fn RequestInterceptor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.request = append(i.request, fn)
}

func (i *Interceptors) AddResponseInterceptor(fn ResponseInterceptor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.response = append(i.response, fn)
}

func (i *Interceptors) AddErrorInterceptor(fn ErrorInterceptor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.errors = append(i.errors, fn)
}

// snapshot copies the chains so a call is unaffected by concurrent registration.
func (i *Interceptors) snapshot() ([]RequestInterceptor, []ResponseInterceptor, []ErrorInterceptor) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]RequestInterceptor(nil), i.request...),
		append([]ResponseInterceptor(nil), i.response...),
		append([]ErrorInterceptor(nil), i.errors...)
}

func (i *Interceptors) applyRequest(ctx context.Context, cfg *RequestConfig) error {
	chain, _, _ := i.snapshot()
	for _, fn := range chain {
		if err := fn(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interceptors) applyResponse(ctx context.Context, env *Envelope, cfg *RequestConfig) (*Envelope, error) {
	_, chain, _ := i.snapshot()
	var err error
	for _, fn := range chain {
		env, err = fn(ctx, env, cfg)
		if err != nil {
			return nil, err
		}
	}
	return env, nil
}

// applyError runs the error chain. handled is true when an interceptor
// recovered the call or replaced the error.
func (i *Interceptors) applyError(ctx context.Context, reqErr *RequestError, cfg *RequestConfig) (*Envelope, bool, error) {
	_, _, chain := i.snapshot()
	for _, fn := range chain {
		env, err := fn(ctx, reqErr, cfg)
		if err != nil {
			return nil, true, err
		}
		if env != nil {
			return env, true, nil
		}
	}
	return nil, false, nil
}
