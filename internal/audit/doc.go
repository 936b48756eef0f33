// Package audit provides the asynchronous audit event pipeline used by the engine:
// a bounded Dispatcher and the Sink implementations it forwards to.
//
// # Architecture boundaries
//
// The engine builds events and hands them to the Dispatcher; sinks decide where they
// go (slog, JSON lines, a channel for tests).
//
// # What this package must NOT do
//
//   - Block the caller when DropIfFull is set.
//   - Import credvault or any sibling package.
package audit
