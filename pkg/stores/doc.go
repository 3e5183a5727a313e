// Package stores persists run history in SQLite.
//
// Runs and their events are written by the engine through Recorder. The
// schema is managed with embedded golang-migrate migrations, and the
// database is opened with the pure-Go modernc.org/sqlite driver in WAL mode.
package stores
