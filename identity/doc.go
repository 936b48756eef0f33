// Package identity defines the user record consumed by the credential engine and the
// storage contract the engine expects from the host application.
//
// # Architecture boundaries
//
// Identity CRUD is a plain keyed lookup with one uniqueness rule (the email). Concrete
// stores live under store/. This package holds types and contracts only.
//
// # What this package must NOT do
//
//   - Hash or verify passwords.
//   - Import credvault, lifecycle, or any store package.
package identity
