// Package jwt mints and verifies the signed access envelope. An envelope carries the
// subject, a unique token id (jti), issued-at and expiry, sealed with HS256 or Ed25519.
// Envelopes are never persisted; validity is proven by signature plus the blocklist.
package jwt
