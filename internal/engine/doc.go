// Package engine defines the boundary between the runtime state manager and the
// embedded compositing engine.
//
// The Engine interface mirrors the engine's C-style contract: constructors
// return a zero ID on failure, start/reorder calls report success as a bool,
// and every object must be released explicitly. The owned handle types (Scene,
// Item, Source, Encoder, Output, Service, View, RenderTarget) wrap those IDs
// with a Release method whose effect is shared by every copy, so a released
// handle reads as zero everywhere. ItemRef and SourceRef are borrowed aliases
// with no Release at all.
//
// Data is the engine's structured settings object: ordered keys, typed values,
// and a separate layer of defaults that HasUserValue distinguishes.
package engine
