// Package memstore provides process-local implementations of the refresh store, the
// access-token blocklist and the identity store. They back tests and single-node
// development runs; state is lost on restart.
package memstore
