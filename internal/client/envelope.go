package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the response shapes served by the API.
type Kind string

const (
	// KindNested carries its payload under "data".
	KindNested Kind = "nested"
	// KindFlat carries its payload as top-level fields next to "success".
	KindFlat Kind = "flat"
	// KindBare is any JSON value that is not an object.
	KindBare Kind = "bare"
	// KindError is the {success:false, message, code} failure envelope.
	KindError Kind = "error"
)

// Envelope is a response body reduced to one shape.
type Envelope struct {
	Kind    Kind
	Payload json.RawMessage
	Message string
	Code    string
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (e Envelope) Decode(v interface{}) error {
	if v == nil || len(e.Payload) == 0 || bytes.Equal(e.Payload, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: decode payload: %v", ErrTransport, err)
	}
	return nil
}

// Normalize maps a response body onto an Envelope. Bodies that are not JSON
// yield ErrTransport.
func Normalize(body []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Envelope{}, fmt.Errorf("%w: response is not JSON", ErrTransport)
	}

	if trimmed[0] != '{' {
		return Envelope{Kind: KindBare, Payload: json.RawMessage(trimmed)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	message := stringField(fields, "message")
	if success, ok := fields["success"]; ok && bytes.Equal(bytes.TrimSpace(success), []byte("false")) {
		return Envelope{Kind: KindError, Message: message, Code: stringField(fields, "code")}, nil
	}

	if data, ok := fields["data"]; ok {
		return Envelope{Kind: KindNested, Payload: data, Message: message}, nil
	}

	delete(fields, "success")
	delete(fields, "message")
	payload, err := json.Marshal(fields)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return Envelope{Kind: KindFlat, Payload: payload, Message: message}, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
