// Package middleware adapts [credvault.Engine.Authenticate] to net/http.
//
// [Guard] reads the Authorization header, resolves the bearer envelope to an
// identity, and stores both the identity and the raw envelope in the request
// context. [IdentityFromContext] and [TokenFromContext] read them back.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse
// envelopes or query stores; every decision comes from the Engine.
//
// # What this package must NOT do
//
//   - Reveal which authentication check failed. All rejections share one 401 body.
//   - Log or echo the bearer envelope.
package middleware
