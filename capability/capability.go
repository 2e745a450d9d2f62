package capability

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotRegistered is returned by Registry.Lookup when no capability carries
// the requested name.
var ErrNotRegistered = errors.New("capability not registered")

// Capability defines the contract every registered tool must satisfy.
//
// Implementations should:
//   - Use descriptive snake_case names
//   - Declare a minimal JSON-Schema parameter description
//   - Stay thin: marshal arguments, perform one external action, return
//   - Record their own conversation messages through the Context
//   - Be safe for concurrent use; calls within one assistant turn may run
//     in parallel
type Capability interface {
	// Name returns the unique identifier for this capability.
	Name() string

	// Description returns the natural language description provided to the
	// model so it understands when and how to call the capability.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	// It is used both for validation and for native tool declarations.
	Parameters() map[string]any

	// Markup returns the structured-markup calling form, or nil when the
	// capability is callable through the schema form only.
	Markup() *MarkupSpec

	// Execute runs the capability with validated arguments. Failures are
	// data: return a failure Result rather than panicking.
	Execute(ctx *Context, args map[string]any) Result
}

// Result is the uniform outcome of a capability execution: output on
// success, an error string on failure, never both.
type Result struct {
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success builds a Result from any output value. Non-string values are
// serialized to JSON so downstream consumers always see text.
func Success(output any) Result {
	switch v := output.(type) {
	case string:
		return Result{Output: v}
	case nil:
		return Result{}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Failure("serialize output: %v", err)
		}
		return Result{Output: string(data)}
	}
}

// Failure builds an error Result from a format string.
func Failure(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// OK reports whether the result carries no error.
func (r Result) OK() bool { return r.Error == "" }

// Payload renders the result as the map shape tool fragments and recorded
// messages carry.
func (r Result) Payload() map[string]any {
	if r.OK() {
		return map[string]any{"output": r.Output}
	}
	return map[string]any{"error": r.Error}
}

// String returns the output for successes and the error for failures.
func (r Result) String() string {
	if r.OK() {
		return r.Output
	}
	return r.Error
}
