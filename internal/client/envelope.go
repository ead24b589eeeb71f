package client

import (
	"encoding/json"
	"fmt"
)

const (
	ResultSuccess = "success"
	ResultFail    = "fail"
)

// Envelope is the response shape of the blog API.
type Envelope struct {
	Data      json.RawMessage `json:"data"`
	Result    string          `json:"result"`
	Message   string          `json:"message"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// textEnvelope wraps a non-JSON response body as a successful envelope.
func textEnvelope(text string) *Envelope {
	data, _ := json.Marshal(text)
	return &Envelope{Data: data, Result: ResultSuccess, Message: "OK"}
}

// OK reports whether the server marked the call successful.
func (e *Envelope) OK() bool {
	return e.Result != ResultFail
}

// Decode unmarshals the envelope data into v. A missing or null data field
// leaves v untouched.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Text returns the data as a string. JSON strings are unquoted; any other
// JSON value is returned verbatim.
func (e *Envelope) Text() string {
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}

// Signal is the business meaning carried by an envelope message.
type Signal int

const (
	SignalNone Signal = iota
	SignalTokenExpired
	SignalGeneral
)

// Sentinels are the envelope messages the server uses to signal conditions
// that the transport status does not carry.
type Sentinels struct {
	TokenExpired string `yaml:"token_expired"`
	General      string `yaml:"general"`

	// LoginMarker identifies login endpoints, which never trigger a refresh.
	LoginMarker string `yaml:"login_marker"`
}

// DefaultSentinels returns the messages emitted by the blog API.
func DefaultSentinels() Sentinels {
	return Sentinels{
		TokenExpired: "token失效",
		General:      "GENERAL",
		LoginMarker:  "login",
	}
}

// Classify returns the signal carried by env.
func (s Sentinels) Classify(env *Envelope) Signal {
	if env == nil {
		return SignalNone
	}
	switch {
	case s.General != "" && env.Message == s.General:
		return SignalGeneral
	case s.TokenExpired != "" && env.Result == ResultFail && env.Message == s.TokenExpired:
		return SignalTokenExpired
	default:
		return SignalNone
	}
}
