// Package database provides SQLite-based storage for notiontidy.
//
// The database holds two kinds of data:
//   - traversal checkpoints (visited pages and pending worklist per root),
//     which let an interrupted run continue with --resume
//   - run history, one row per finished or interrupted run, with the full
//     report as JSON
//
// Every row carries a scope: a short fingerprint of the Notion token (see
// Fingerprint). Checkpoints of two accounts never mix and the token itself
// is never written to disk.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, with a
// single connection and WAL journaling.
package database
