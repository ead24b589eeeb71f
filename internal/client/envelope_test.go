package client

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsClassify(t *testing.T) {
	s := DefaultSentinels()

	tests := []struct {
		name string
		env  *Envelope
		want Signal
	}{
		{name: "nil", env: nil, want: SignalNone},
		{name: "success", env: &Envelope{Result: ResultSuccess, Message: "ok"}, want: SignalNone},
		{name: "token expired", env: &Envelope{Result: ResultFail, Message: "token失效"}, want: SignalTokenExpired},
		{name: "expiry text on success is ignored", env: &Envelope{Result: ResultSuccess, Message: "token失效"}, want: SignalNone},
		{name: "general", env: &Envelope{Result: ResultFail, Message: "GENERAL"}, want: SignalGeneral},
		{name: "other failure", env: &Envelope{Result: ResultFail, Message: "not found"}, want: SignalNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Classify(tt.env))
		})
	}

	custom := Sentinels{TokenExpired: "TOKEN_EXPIRED"}
	assert.Equal(t, SignalTokenExpired, custom.Classify(&Envelope{Result: ResultFail, Message: "TOKEN_EXPIRED"}))
	assert.Equal(t, SignalNone, custom.Classify(&Envelope{Result: ResultFail, Message: "GENERAL"}))
}

func TestEnvelopeDecode(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"id":5},"result":"success","message":"ok","timestamp":1700000000000}`), &env))

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, env.Decode(&out))
	assert.Equal(t, 5, out.ID)
	assert.Equal(t, int64(1700000000000), env.Timestamp)

	empty := Envelope{Data: json.RawMessage("null")}
	assert.NoError(t, empty.Decode(&out))
	assert.Equal(t, 5, out.ID)

	bad := Envelope{Data: json.RawMessage(`"text"`)}
	assert.Error(t, bad.Decode(&out))
}

func TestParamsValues(t *testing.T) {
	v := Params{
		"key":      "go",
		"page":     2,
		"empty":    nil,
		"tags":     []string{"a", "b"},
		"pageSize": int64(10),
	}.Values()

	assert.Equal(t, url.Values{
		"key":      {"go"},
		"page":     {"2"},
		"tags":     {"a", "b"},
		"pageSize": {"10"},
	}, v)
}
