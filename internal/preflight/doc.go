// Package preflight provides readiness checks for the filesystem paths,
// network address and helper binaries revostreamd depends on.
//
// These checks run in two contexts:
//   - revostreamd logs every result at startup and refuses to run when a
//     required check fails.
//   - The CLI "revostream status --checks" command prints the same list,
//     skipping the bind check while a daemon already holds the address.
//
// Optional checks (pactl) never block startup.
package preflight
