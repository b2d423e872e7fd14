// Package collection moves scene collections in and out of a running studio.
//
// Two document shapes exist. The own shape lists scenes with their items,
// filters and placement and is described by Schema. The native shape is the
// engine's saved-sources layout with a scene order and current scene marker.
// Import accepts either, replaces the whole graph and tolerates sources that
// fail to create; only a document that yields no source at all is an error.
//
// Imported items are registered under their names, so a collection exported
// and imported again keeps addressing items the same way.
package collection
