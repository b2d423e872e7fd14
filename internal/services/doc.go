// Package services defines shared utilities consumed by the runtime, the daemon
// API, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, correlation IDs, and operation
//     names for logging and the action journal.
//   - Structured error markers plus the Wrap and Fail helpers. Fail keeps the
//     exact caller-visible message while errors.Is still classifies it, which
//     HTTPStatus relies on.
//
// Use these helpers when wiring new runtime operations so error handling and
// observability stay uniform across the daemon.
package services
