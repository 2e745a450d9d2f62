package core

import (
	"encoding/json"
	"testing"
)

// Fragment constructor & helper method tests
func TestFragment_Constructors(t *testing.T) {
	f := NewFragment("run-123", KindAssistant)
	if f.RunID != "run-123" || f.Kind != KindAssistant || f.ID == "" || f.Timestamp.IsZero() {
		t.Fatalf("NewFragment did not initialize fields correctly: %+v", f)
	}

	errFrag := NewErrorFragment("run-123", "boom")
	if !errFrag.IsError() || errFrag.Message != "boom" {
		t.Fatalf("NewErrorFragment malformed: %+v", errFrag)
	}

	status := NewStatusFragment("run-123", StatusStarted, "attempt 1")
	if status.IsError() || status.Status != StatusStarted {
		t.Fatalf("NewStatusFragment malformed: %+v", status)
	}

	asst := NewAssistantTextFragment("run-123", "hello")
	if !asst.IsAssistant() {
		t.Fatalf("expected assistant fragment: %+v", asst)
	}
	text, err := asst.Content.Text()
	if err != nil || text != "hello" {
		t.Fatalf("assistant text extraction failed: %q, %v", text, err)
	}

	tool := NewToolFragment("run-123", "execute_command", map[string]any{"output": "ok"})
	if tool.Kind != KindTool || tool.Name != "execute_command" {
		t.Fatalf("NewToolFragment malformed: %+v", tool)
	}
}

func TestEnvelope_TextExtraction(t *testing.T) {
	// decoded form
	dec := DecodedEnvelope(map[string]any{"role": "assistant", "content": "from decoded"})
	if text, err := dec.Text(); err != nil || text != "from decoded" {
		t.Fatalf("decoded extraction failed: %q, %v", text, err)
	}

	// raw serialized form, decoded lazily
	raw := RawEnvelope(`{"role":"assistant","content":"from raw"}`)
	if text, err := raw.Text(); err != nil || text != "from raw" {
		t.Fatalf("raw extraction failed: %q, %v", text, err)
	}

	// malformed raw payload reports an error instead of guessing
	bad := RawEnvelope(`{"role":"assistant","content":`)
	if _, err := bad.Text(); err == nil {
		t.Fatal("expected decode error for malformed raw payload")
	}

	// non-string content yields empty text, no error
	structured := DecodedEnvelope(map[string]any{"content": map[string]any{"nested": true}})
	if text, err := structured.Text(); err != nil || text != "" {
		t.Fatalf("structured content should yield empty text: %q, %v", text, err)
	}

	// empty envelope
	var zero Envelope
	if !zero.IsZero() {
		t.Error("zero envelope should report IsZero")
	}
	if text, err := zero.Text(); err != nil || text != "" {
		t.Fatalf("zero envelope text should be empty: %q, %v", text, err)
	}
}

func TestEnvelope_JSONRoundTrip(t *testing.T) {
	frag := NewAssistantFragment("run-1", RawEnvelope(`{"content":"hi"}`))
	data, err := json.Marshal(frag)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Fragment
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Content.Raw != `{"content":"hi"}` {
		t.Fatalf("raw content should survive round trip as a string: %+v", back.Content)
	}

	// decoded envelopes marshal as objects and come back decoded
	frag2 := NewAssistantTextFragment("run-1", "hello")
	data, err = json.Marshal(frag2)
	if err != nil {
		t.Fatalf("marshal decoded: %v", err)
	}
	var back2 Fragment
	if err := json.Unmarshal(data, &back2); err != nil {
		t.Fatalf("unmarshal decoded: %v", err)
	}
	if back2.Content.Decoded == nil || back2.Content.Decoded["content"] != "hello" {
		t.Fatalf("decoded content should survive round trip as an object: %+v", back2.Content)
	}
}
