// Package runlog keeps a history of extraction runs in SQLite.
//
// Each invocation of `wikistream run` inserts a row when it starts and
// updates it with counts and a final status when it stops. The ledger is
// informational only: a failed run is re-run from the beginning and nothing
// here is used to resume work.
//
// The schema is embedded from schema.sql and its version is kept in SQLite's
// user_version pragma. There are no migrations; a database written by another
// version is rejected with ErrSchemaMismatch.
package runlog
