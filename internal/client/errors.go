package client

import (
	"errors"
	"fmt"
)

// Kind classifies a RequestError. Kinds are mutually exclusive.
type Kind int

const (
	KindNetwork Kind = iota
	KindAuth
	KindServer
	KindBusiness
	KindGeneral
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	case KindBusiness:
		return "business"
	case KindGeneral:
		return "general"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrStillUnauthorized is wrapped by the Auth error returned when a request
	// still reports an expired token after a successful refresh and retry.
	ErrStillUnauthorized = errors.New("request still unauthorized after token refresh")

	// ErrRefreshFailed is wrapped by the Auth error returned when the token
	// refresh triggered by an expired token fails.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoAuthenticator is reported by RefreshToken when no login step is configured.
	ErrNoAuthenticator = errors.New("no authenticator configured")
)

// RequestError is the single error type leaving the request executor.
type RequestError struct {
	Kind Kind

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	URL     string
	Message string

	// Override replaces the kind's default user-facing message when set.
	Override string

	// Err is the underlying transport or decoding failure, if any.
	Err error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func newRequestError(kind Kind, status int, url, message string, err error) *RequestError {
	return &RequestError{Kind: kind, Status: status, URL: url, Message: message, Err: err}
}

// BusinessError reports a well-formed envelope whose result is fail. The
// executor returns such envelopes as successes; services that need the data
// convert them with this.
func BusinessError(url string, env *Envelope) *RequestError {
	msg := "request failed"
	if env != nil && env.Message != "" {
		msg = env.Message
	}
	return newRequestError(KindBusiness, 0, url, msg, nil)
}

// AsRequestError normalizes err into a RequestError. Errors that are not
// already tagged become Network errors.
func AsRequestError(err error) *RequestError {
	if err == nil {
		return nil
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return &RequestError{Kind: KindNetwork, Message: err.Error(), Err: err}
}

// IsKind reports whether err is a RequestError of the given kind.
func IsKind(err error, kind Kind) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind == kind
}

func IsNetworkError(err error) bool  { return IsKind(err, KindNetwork) }
func IsAuthError(err error) bool     { return IsKind(err, KindAuth) }
func IsServerError(err error) bool   { return IsKind(err, KindServer) }
func IsBusinessError(err error) bool { return IsKind(err, KindBusiness) }
func IsGeneralError(err error) bool  { return IsKind(err, KindGeneral) }
func IsTimeoutError(err error) bool  { return IsKind(err, KindTimeout) }

// classifyStatus maps a non-2xx HTTP status to an error kind.
func classifyStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status >= 500:
		return KindServer
	default:
		return KindNetwork
	}
}
