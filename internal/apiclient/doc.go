// Package apiclient is the HTTP client the revostream CLI uses to drive
// revostreamd.
//
// Every daemon route has a typed method returning the shared internal/api
// DTOs. Non-2xx answers surface as *Error carrying the daemon's message, so
// the CLI prints the same text the runtime produced. IsUnavailable separates
// "daemon not running" from request failures.
package apiclient
