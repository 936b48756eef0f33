// Package lifecycle owns the credential-pair state machine: issuance, single-use
// rotation of refresh secrets, subject-wide revocation, and the access-token blocklist.
//
// # Invariants
//
//   - A refresh secret rotates successfully at most once. Rotation marks the stored
//     record revoked through one conditional update before the next pair is minted, so
//     concurrent callers presenting the same secret see exactly one winner.
//   - Revocation flags only ever flip from false to true.
//   - Blocklist membership is evaluated against the entry's own expiry at query time;
//     purging is housekeeping, never a correctness requirement.
//
// # Architecture boundaries
//
// Stores implement [RefreshTokenStore] and [AccessTokenBlocklist] (see store/). The
// signed envelope is supplied as an [Envelope], normally *jwt.Manager. The Manager holds
// no mutable state of its own and is safe for concurrent use.
//
// # What this package must NOT do
//
//   - Log or return refresh secrets, envelopes, or passwords inside errors.
//   - Look up identities or verify passwords.
package lifecycle
