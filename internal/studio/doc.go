// Package studio owns the live engine object graph: scenes, their items, the
// recording and streaming output groups, and the offscreen preview.
//
// Runtime serializes every operation behind one mutex and performs all engine
// calls while holding it; the engine is not safe for concurrent entry. A panic
// under the lock poisons the runtime and every later call returns ErrPoisoned.
//
// Items are addressed by id. "accent" and "title" name the template slots,
// other ids are looked up among the items created through CreateSource, and
// anything else falls back to a scan of the scene by source name. Collection
// documents rely on that fallback because they reference items by name.
//
// Caller-visible failures are services.Fail errors so the exact message
// survives to the API while errors.Is still classifies them.
package studio
