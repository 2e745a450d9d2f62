package schema

import (
	"errors"
	"testing"
)

type sampleParams struct {
	Command string  `json:"command" description:"Shell command to run"`
	Timeout int     `json:"timeout,omitempty"`
	Folder  *string `json:"folder,omitempty"`
	hidden  string
}

func TestFromStruct(t *testing.T) {
	_ = sampleParams{hidden: ""}

	s := FromStruct(sampleParams{})
	props, ok := s["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties: %+v", s)
	}
	if _, ok := props["command"]; !ok {
		t.Error("command property missing")
	}
	if _, ok := props["hidden"]; ok {
		t.Error("unexported fields must not appear")
	}

	cmd := props["command"].(map[string]any)
	if cmd["type"] != "string" || cmd["description"] != "Shell command to run" {
		t.Errorf("command schema malformed: %+v", cmd)
	}

	required, _ := s["required"].([]string)
	if len(required) != 1 || required[0] != "command" {
		t.Errorf("only command should be required: %+v", required)
	}
}

func TestValidate(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string"},
			"timeout": map[string]any{"type": "integer"},
		},
		"required": []string{"command"},
	}

	if err := Validate(map[string]any{"command": "ls"}, s); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	// missing required field
	err := Validate(map[string]any{"timeout": 5}, s)
	if err == nil {
		t.Fatal("missing required field should fail")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "command" {
		t.Fatalf("expected validation error for command: %v", err)
	}

	// wrong type
	if err := Validate(map[string]any{"command": 42}, s); err == nil {
		t.Fatal("wrong type should fail")
	}

	// JSON-decoded numbers arrive as float64; whole values pass integer checks
	if err := Validate(map[string]any{"command": "ls", "timeout": float64(30)}, s); err != nil {
		t.Fatalf("whole float should validate as integer: %v", err)
	}
	if err := Validate(map[string]any{"command": "ls", "timeout": 30.5}, s); err == nil {
		t.Fatal("fractional value should fail integer check")
	}

	// required as []any (decoded schema form)
	s["required"] = []any{"command"}
	if err := Validate(map[string]any{}, s); err == nil {
		t.Fatal("decoded required list should still be enforced")
	}

	// unknown fields pass through
	if err := Validate(map[string]any{"command": "ls", "extra": true}, s); err != nil {
		t.Fatalf("unknown fields should be allowed: %v", err)
	}
}
