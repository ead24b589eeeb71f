package client

import (
	"context"

	"github.com/devilmonastery/inkwell/internal/pkg/idgen"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDInterceptor stamps each call with a snowflake request ID unless
// the caller already set one.
func RequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, cfg *RequestConfig) error {
		if cfg.Header.Get(RequestIDHeader) == "" {
			cfg.Header.Set(RequestIDHeader, idgen.GenerateID())
		}
		return nil
	}
}
