// Package password implements secret hashing and verification with Argon2id.
//
// # Output format
//
// Digests are encoded in PHC string format with unpadded base64:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Cost parameters travel inside the digest, so changing [Config] never breaks old
// digests. [Hasher.NeedsUpgrade] reports digests produced with weaker parameters so the
// caller can re-hash after the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length, character
// classes) is enforced before the engine is reached.
//
// # What this package must NOT do
//
//   - Store or retrieve digests.
//   - Import any other credvault package.
//   - Log secrets or digests.
package password
