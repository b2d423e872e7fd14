// Package api defines the wire-format types shared by the daemon HTTP server
// and the CLI client, plus converters from the studio, collection, journal,
// devices and logging types.
//
// # Design Notes
//
// Field names use snake_case so scene and source payloads read the same as
// the collection documents. Converters return empty slices rather than nil so
// list endpoints always encode JSON arrays. Errors travel as ErrorResponse
// with the runtime's message unchanged; clients match on those strings.
package api
