// Package journal records the mutating actions performed against the studio.
//
// A Recorder keeps a bounded ring of entries for the API tail, fans new entries
// out to subscribers such as the websocket event stream, and optionally writes
// them to a SQLite Store so the tail survives daemon restarts. Detail values
// under credential-like keys are replaced with "***" before an entry is kept.
//
// Recording is best effort: persistence errors are logged and the caller never
// sees them.
package journal
