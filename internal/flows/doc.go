// Package flows contains the orchestration bodies behind every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunRefresh, RunLogout, RunAuthenticate)
// takes a typed dependency struct and returns a result carrying a FailureKind, which
// the root package maps onto its public error taxonomy, metrics and audit events.
//
// # Architecture boundaries
//
// Flows coordinate the identity store, password hasher and lifecycle manager. They do
// NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import credvault (to avoid import cycles).
//   - Log or return raw passwords, refresh secrets or envelopes.
package flows
