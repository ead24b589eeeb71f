package client

import (
	"context"
	"log/slog"
	"time"
)

// Messages are the user-facing strings shown for each error kind.
type Messages struct {
	Network string `yaml:"network"`
	Auth    string `yaml:"auth"`
	Server  string `yaml:"server"`
	General string `yaml:"general"`
	Timeout string `yaml:"timeout"`
}

func DefaultMessages() Messages {
	return Messages{
		Network: "Network error, please check your connection",
		Auth:    "Your session has expired, please sign in again",
		Server:  "The server is having trouble, please try again later",
		General: "Something went wrong, please try again",
		Timeout: "The request timed out, please try again later",
	}
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.Network == "" {
		m.Network = d.Network
	}
	if m.Auth == "" {
		m.Auth = d.Auth
	}
	if m.Server == "" {
		m.Server = d.Server
	}
	if m.General == "" {
		m.General = d.General
	}
	if m.Timeout == "" {
		m.Timeout = d.Timeout
	}
	return m
}

// Message returns the text to show for err: the error's override if set,
// otherwise the kind's default. Business errors carry their own message.
func Message(err error, messages Messages) string {
	reqErr := AsRequestError(err)
	if reqErr == nil {
		return ""
	}
	if reqErr.Override != "" {
		return reqErr.Override
	}
	messages = messages.withDefaults()
	switch reqErr.Kind {
	case KindAuth:
		return messages.Auth
	case KindServer:
		return messages.Server
	case KindBusiness:
		if reqErr.Message != "" {
			return reqErr.Message
		}
		return messages.General
	case KindGeneral:
		return messages.General
	case KindTimeout:
		return messages.Timeout
	default:
		return messages.Network
	}
}

// LogError writes one structured record for a failed call.
func LogError(logger *slog.Logger, err error) {
	reqErr := AsRequestError(err)
	if reqErr == nil {
		return
	}
	attrs := []any{
		slog.String("kind", reqErr.Kind.String()),
		slog.String("message", reqErr.Message),
		slog.Time("timestamp", time.Now()),
	}
	if reqErr.Status != 0 {
		attrs = append(attrs, slog.Int("status", reqErr.Status))
	}
	if reqErr.URL != "" {
		attrs = append(attrs, slog.String("url", reqErr.URL))
	}
	if reqErr.Err != nil {
		attrs = append(attrs, slog.String("cause", reqErr.Err.Error()))
	}
	logger.Error("request failed", attrs...)
}

// ErrorHandler presents errors to the user. OnError, when set, replaces the
// toast.
type ErrorHandler struct {
	Messages  Messages
	Feedback  Feedback
	Logger    *slog.Logger
	LogErrors bool
	OnError   func(err *RequestError, message string)
}

// Handle logs and presents err, returning the message shown.
func (h *ErrorHandler) Handle(err error) string {
	reqErr := AsRequestError(err)
	if reqErr == nil {
		return ""
	}
	if h.LogErrors {
		logger := h.Logger
		if logger == nil {
			logger = slog.Default()
		}
		LogError(logger, reqErr)
	}

	msg := Message(reqErr, h.Messages)
	switch {
	case h.OnError != nil:
		h.OnError(reqErr, msg)
	case h.Feedback != nil:
		h.Feedback.Toast(msg, nil)
	}
	return msg
}

// Middleware returns an error interceptor that handles each failure and
// lets it continue down the chain.
func (h *ErrorHandler) Middleware() ErrorInterceptor {
	return func(ctx context.Context, err *RequestError, cfg *RequestConfig) (*Envelope, error) {
		h.Handle(err)
		return nil, nil
	}
}
