// Package observability records queue mutations in an append-only JSON Lines
// event log and derives metrics and alerts from it on demand. Every event
// carries the session ID of the process that wrote it, because each taskq
// process owns its own in-memory queue.
package observability
