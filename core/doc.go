// Package core provides the foundational domain types and interfaces used by
// the Navvy agent runtime. It defines the core abstractions for:
//
//   - Run requests (immutable inputs to one agent run)
//   - Fragments (incremental units streamed back to the caller)
//   - Messages and conversations (the append-only per-conversation log)
//   - Tool policies (how capability calls are executed during streaming)
//   - Pluggable stores for conversation history and run-scoped artifacts
//
// The package intentionally keeps implementation concerns (persistence, the
// run loop, concrete model adapters) out of scope, exposing small interfaces
// to enable custom backends and extensions.
package core
