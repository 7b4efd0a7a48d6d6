// Package api serves conversions and conversion history over HTTP.
//
// Routes:
//
//	GET  /healthz                 liveness, no auth
//	GET  /metrics                 Prometheus scrape, no auth
//	POST /v1/conversions          run one conversion synchronously
//	GET  /v1/conversions          recent history, newest first (?limit=N)
//	GET  /v1/conversions/{id}     one history entry
//
// When api.token is configured every /v1 route requires
// "Authorization: Bearer <token>".
//
// Conversion errors are reported as {"error": ..., "kind": ...} where kind is
// the snake_case error kind. Kinds map to status codes in statusForError.
// DTOs use snake_case JSON tags and RFC3339 timestamps with milliseconds.
package api
