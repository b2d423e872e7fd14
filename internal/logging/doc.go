// Package logging assembles structured slog loggers and formatting helpers used
// across the RevoStream daemon and CLI.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so runtime code can tag log lines
// with operation names, request IDs, and correlation IDs. StreamHub keeps a
// bounded buffer of recent records for the daemon's log endpoint.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape and routing guarantees as the rest of the system.
package logging
