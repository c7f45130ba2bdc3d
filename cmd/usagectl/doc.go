// Command usagectl is an operator tool for the usage ledger.
//
// It opens the SQLite database directly (the service does not need to be
// running) and supports granting the pro flag to a user, inspecting
// today's usage for a quota key, and pruning stale rows.
//
// Usage:
//
//	usagectl grant <user-id>
//	usagectl status <quota-key>
//	usagectl prune
//
// The database location comes from DATA_DIR (default /data), matching
// the server configuration.
package main
