// Package main hosts the revostream CLI entrypoint and command graph.
//
// Every command except config init talks to revostreamd over its HTTP API
// through internal/apiclient. Scene, source, output, and collection commands
// map one-to-one onto runtime operations; status and daemon commands add
// process control and preflight checks. The logs command falls back to
// reading the daemon's log file when the API does not answer.
package main
