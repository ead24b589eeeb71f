package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
)

const (
	contentTypeJSON       = "application/json"
	contentTypeURLEncoded = "application/x-www-form-urlencoded"
)

// Body is a request payload. Encode is called once per logical call and the
// bytes are reused for the retry.
type Body interface {
	Encode() (data []byte, contentType string, err error)
}

// RawBody is sent verbatim, typed as JSON when it parses as JSON and as a
// URL-encoded form otherwise.
type RawBody string

func (b RawBody) Encode() ([]byte, string, error) {
	if json.Valid([]byte(b)) {
		return []byte(b), contentTypeJSON, nil
	}
	return []byte(b), contentTypeURLEncoded, nil
}

// FormBody is sent as application/x-www-form-urlencoded.
type FormBody url.Values

func (b FormBody) Encode() ([]byte, string, error) {
	return []byte(url.Values(b).Encode()), contentTypeURLEncoded, nil
}

// JSONBody marshals V as the payload.
type JSONBody struct {
	V any
}

func (b JSONBody) Encode() ([]byte, string, error) {
	data, err := json.Marshal(b.V)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, contentTypeJSON, nil
}

// FormFile is a file part of a MultipartBody.
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// MultipartBody is sent as multipart/form-data. Its content type carries the
// generated boundary and is never replaced by JSON encoding.
type MultipartBody struct {
	Fields map[string]string
	Files  []FormFile
}

func (b MultipartBody) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range b.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range b.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Params are query parameters. Nil values are skipped.
type Params map[string]any

func (p Params) Values() url.Values {
	values := url.Values{}
	for key, v := range p {
		switch val := v.(type) {
		case nil:
			continue
		case []string:
			for _, s := range val {
				values.Add(key, s)
			}
		default:
			values.Set(key, fmt.Sprint(val))
		}
	}
	return values
}

// queryValues expresses b as query parameters for methods that carry no
// body. JSON and multipart payloads have no query form.
func queryValues(b Body) (url.Values, bool) {
	switch v := b.(type) {
	case FormBody:
		return url.Values(v), true
	case RawBody:
		if json.Valid([]byte(v)) {
			return nil, false
		}
		values, err := url.ParseQuery(string(v))
		if err != nil {
			return nil, false
		}
		return values, true
	case JSONBody:
		if p, ok := v.V.(Params); ok {
			return p.Values(), true
		}
	}
	return nil, false
}

// payloadBody chooses the encoding for a method helper's payload.
func payloadBody(payload any) Body {
	switch v := payload.(type) {
	case nil:
		return nil
	case Body:
		return v
	case url.Values:
		return FormBody(v)
	case string:
		return RawBody(v)
	default:
		return JSONBody{V: v}
	}
}
