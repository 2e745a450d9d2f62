// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside Navvy.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool call representation (ToolDef, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. Anthropic, OpenAI) implement the Model interface from this
// package so the thread manager stays decoupled from vendor SDKs. The
// Resolver maps the model name a run requests onto a registered provider.
package model
