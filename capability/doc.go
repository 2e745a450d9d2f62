// Package capability implements the capability calling subsystem: the
// uniform contract every tool satisfies, a registry keyed by name, and an
// invoker that validates arguments, executes calls (in parallel when asked
// to) and normalizes outcomes.
//
// Capabilities are thin, black-box wrappers from the runtime's point of
// view. Each declares a name, a JSON-Schema parameter description and
// optionally a structured-markup calling form for models that emit custom
// tags instead of native tool calls. Execution returns a uniform Result
// carrying either output or an error string; side effects such as recording
// messages into the conversation are the capability's own responsibility,
// performed through the Context it receives.
package capability
