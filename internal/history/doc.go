// Package history records every conversion in a small SQLite database so the
// CLI and HTTP API can list recent runs and their outcomes.
//
// Rows are written twice: Begin inserts a running entry before any frame is
// requested, Finish stamps the terminal status, error kind, and frame count.
// Entries left in the running state belong to a process that died mid-run.
//
// Schema changes bump schemaVersion in schema.go; an older database is
// rejected with ErrSchemaMismatch and must be deleted.
package history
