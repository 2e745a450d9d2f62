// Package conversation provides core.Store implementations backing the
// append-only conversation log: a volatile in-memory store for tests and
// demos, and a SQLite store for durable single-node deployments.
package conversation
