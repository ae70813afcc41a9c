// Package broadcast streams state container snapshots to connected
// WebSocket clients. A single actor goroutine owns the client registry;
// registration, eviction, and fan-out all run through its command
// channel. Clients are grouped by page so per-page connection limits
// apply.
package broadcast
