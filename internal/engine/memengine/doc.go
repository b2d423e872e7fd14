// Package memengine is an in-process implementation of engine.Engine.
//
// It keeps a reference-counted object table with the same ownership rules as
// the native compositor: sources start with one reference, scene items and
// filter attachments each hold another, and scenes own their scene source.
// Outputs honour their type's flags (explicit encoders, service binding) and
// report a last-error string when a start fails. Views render visible color
// sources into a BGRA frame so previews are deterministic.
//
// Fault knobs (FailStart, FailCreate, RemoveType, FailReorder, FailReset) let
// tests drive fallback paths, and Live reports objects still held after the
// owner believes it released everything.
package memengine
