// Package logs reads revostreamd log files directly, for when the daemon is
// not running and GET /api/logs is unavailable.
//
// Last returns the trailing lines of a file, ReadFrom continues from a byte
// offset and Follow polls for appended lines. JSON-format records are decoded
// into api.LogEvent so callers can filter by component the same way the
// daemon's stream hub does.
package logs
