// Package credvault issues, rotates and revokes session credentials for a user-identity
// service: short-lived signed access envelopes paired with single-use opaque refresh
// secrets, plus an expiring blocklist that lets logout kill a still-valid envelope.
//
// Engine methods are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// credvault is the public surface. It exposes [Engine], [Builder], [Config], the error
// taxonomy and value types. Token lifecycle rules live in the lifecycle package; flow
// orchestration and audit dispatch live under internal/. Storage backends are supplied
// by the host (store/memstore, store/redisstore, store/pgstore or its own).
//
// # What this package must NOT do
//
//   - Log or return raw passwords, refresh secrets or envelopes outside the result
//     values that carry them to the caller.
//   - Own storage connections. Builders receive ready stores.
//   - Import any sub-package that re-imports credvault (no import cycles).
package credvault
