// Package pgstore implements the identity store, the refresh store and the
// access-token blocklist on PostgreSQL through database/sql with the pgx driver.
//
// Repositories take a DBTX so they run equally over *sql.DB and *sql.Tx. Rotation
// uses a single conditional UPDATE ... RETURNING, so two concurrent rotations of one
// secret cannot both see the row as active.
package pgstore
