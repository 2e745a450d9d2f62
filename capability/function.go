package capability

import (
	"github.com/navvy-ai/navvy/internal/schema"
)

// FuncCapability adapts a plain Go function into a Capability.
//
// It holds a JSON-Schema-like parameter schema, an optional markup
// calling form, and the wrapped implementation. The invoker validates
// arguments against the schema before the function runs, so the function
// body can assume required parameters are present and well typed.
//
// A FuncCapability has no mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type FuncCapability struct {
	name        string
	description string
	parameters  map[string]any
	markup      *MarkupSpec
	fn          func(ctx *Context, args map[string]any) Result
}

// NewFunc constructs a FuncCapability from an explicit schema and function.
//
// Example:
//
//	sum := capability.NewFunc(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(ctx *capability.Context, args map[string]any) capability.Result {
//	    return capability.Success(args["a"].(float64) + args["b"].(float64))
//	  },
//	)
func NewFunc(
	name, description string,
	parameters map[string]any,
	fn func(ctx *Context, args map[string]any) Result,
) *FuncCapability {
	return &FuncCapability{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFuncFromStruct derives the parameter schema from a struct's json and
// description tags. It is a convenience for simple argument containers.
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
//
//	sum := capability.NewFuncFromStruct("calculate_sum",
//	  "Calculate the sum of two numbers", SumArgs{}, fn)
func NewFuncFromStruct(
	name, description string,
	argsType any,
	fn func(ctx *Context, args map[string]any) Result,
) *FuncCapability {
	return NewFunc(name, description, schema.FromStruct(argsType), fn)
}

// WithMarkup attaches a structured-markup calling form and returns the
// receiver for chaining.
func (c *FuncCapability) WithMarkup(spec *MarkupSpec) *FuncCapability {
	c.markup = spec
	return c
}

// Name returns the unique capability name used in call routing.
func (c *FuncCapability) Name() string { return c.name }

// Description returns the short description exposed to models.
func (c *FuncCapability) Description() string { return c.description }

// Parameters returns the JSON schema describing accepted arguments.
func (c *FuncCapability) Parameters() map[string]any { return c.parameters }

// Markup returns the markup calling form, or nil when the capability is
// callable through native tool calls only.
func (c *FuncCapability) Markup() *MarkupSpec { return c.markup }

// Execute invokes the wrapped function.
func (c *FuncCapability) Execute(ctx *Context, args map[string]any) Result {
	return c.fn(ctx, args)
}
