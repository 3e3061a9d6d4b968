// Package sqlite is the SQLite backed store, using the pure Go
// modernc.org/sqlite driver.
package sqlite
