// Package thread implements the model session: one model request turned
// into an ordered stream of fragments, with capability calls recognized and
// executed while the response is still streaming.
//
// The Manager is the entry point. It resolves the requested model, assembles
// the system prompt and the model-visible history (optionally compacted),
// and drives the provider stream in a background goroutine. Text deltas
// become assistant fragments, recognized capability calls are executed
// through the capability Invoker under the run's tool policy, and outcomes
// are emitted as tool fragments and recorded in the conversation store so
// the next attempt sees them.
//
// A session emits the full turn text once more in a final assistant fragment
// (stream_status "complete") after the deltas, records the assistant message
// and the capability outcomes, and then closes its channels: the fragment
// channel first, the error channel after. The error channel carries at most
// one terminal transport error.
package thread
