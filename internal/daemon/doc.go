// Package daemon runs revostreamd: it owns the studio runtime for the life of
// the process and exposes it over HTTP.
//
// The daemon takes a flock-based lock so only one instance drives the engine,
// serves the JSON API on a chi router with optional bearer authentication,
// publishes Prometheus metrics, streams journal entries over a websocket and
// feeds udev hotplug events into the journal. Stop shuts the engine down
// before releasing the lock so no engine object outlives the process.
//
// Keep runtime semantics in internal/studio; handlers here only translate
// between HTTP and runtime calls and map error markers to status codes.
package daemon
