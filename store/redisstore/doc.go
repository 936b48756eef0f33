// Package redisstore implements the refresh store and the access-token blocklist on
// Redis.
//
// Key layout, with prefix P:
//
//	P:rt:<secret-hash>   hash   id, sub, exp, created, revoked
//	P:rt:id:<id>         string secret hash, for revocation by id
//	P:rt:sub:<subject>   set    secret hashes of one subject
//	P:bl:<jti>           string expiry in unix milliseconds
//
// Consume, conditional revoke and revoke-all run as Lua scripts so each is a single
// atomic step on the server. Every key carries a TTL, so expired state leaves Redis on
// its own and PurgeExpired has nothing to do.
package redisstore
