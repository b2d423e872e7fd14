// Package params bridges the flat string parameter view used by callers and
// the engine's structured settings objects.
//
// Extract flattens user-set settings into strings, Apply writes a parameter
// map back using per-type rules with a generic coercion fallback, and the
// transform and audio helpers turn placement and mixer parameters into engine
// values. Everything here is pure over its arguments; callers hold the runtime
// lock while using it.
package params
