// Package refresh implements generation and at-rest hashing of opaque refresh secrets.
//
// # Token format
//
// A refresh secret is 32 bytes from crypto/rand, hex-encoded (64 characters, 256 bits of
// entropy). Secrets are never stored in plaintext: stores index records by the
// SHA-256 hex digest returned from [Hash].
//
// # Architecture boundaries
//
// This package owns secret encoding and hashing. Rotation, revocation and replay
// handling belong to the lifecycle manager and its stores.
//
// # What this package must NOT do
//
//   - Access Redis, Postgres or any I/O besides the system CSPRNG.
//   - Import credvault, jwt, or lifecycle.
package refresh
