package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope carries assistant-authored content that arrives either as a
// serialized JSON string or as an already-decoded object. Upstream producers
// are inconsistent about which form they emit, so both are first-class and
// decoding happens lazily: forwarding an envelope never requires it to parse.
type Envelope struct {
	Raw     string
	Decoded map[string]any
}

// RawEnvelope wraps a serialized payload without decoding it.
func RawEnvelope(raw string) Envelope { return Envelope{Raw: raw} }

// DecodedEnvelope wraps an already-decoded payload.
func DecodedEnvelope(m map[string]any) Envelope { return Envelope{Decoded: m} }

// TextEnvelope builds a decoded envelope in the conventional
// {"role": ..., "content": ...} shape.
func TextEnvelope(role, text string) Envelope {
	return Envelope{Decoded: map[string]any{"role": role, "content": text}}
}

// IsZero reports whether the envelope carries no content in either form.
func (e Envelope) IsZero() bool { return e.Raw == "" && e.Decoded == nil }

// Object returns the decoded form, parsing Raw if necessary. A malformed Raw
// payload returns an error; callers treat that as a per-fragment condition,
// not a run-fatal one.
func (e Envelope) Object() (map[string]any, error) {
	if e.Decoded != nil {
		return e.Decoded, nil
	}
	if strings.TrimSpace(e.Raw) == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(e.Raw), &m); err != nil {
		return nil, fmt.Errorf("decode assistant content: %w", err)
	}
	return m, nil
}

// Text extracts the nested "content" text from the envelope, decoding Raw
// lazily. A missing or non-string content field yields an empty string with
// no error; only a malformed Raw payload is reported.
func (e Envelope) Text() (string, error) {
	m, err := e.Object()
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", nil
	}
	if s, ok := m["content"].(string); ok {
		return s, nil
	}
	return "", nil
}

// MarshalJSON emits the raw form verbatim as a JSON string when present,
// otherwise the decoded object. A zero envelope marshals as null.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Raw != "" {
		return json.Marshal(e.Raw)
	}
	if e.Decoded != nil {
		return json.Marshal(e.Decoded)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts either a JSON string (stored raw, decoded lazily) or
// a JSON object (stored decoded).
func (e *Envelope) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*e = Envelope{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		e.Raw = s
		e.Decoded = nil
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.Decoded = m
	e.Raw = ""
	return nil
}
