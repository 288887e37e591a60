// Package journal persists delivered notification messages to
// Postgres in batches. The journal is optional; when no database is
// configured the daemon simply does not start one. Payload semantics
// stay opaque: the raw data map is stored as JSON.
package journal
