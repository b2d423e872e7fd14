package collection

import (
	"github.com/invopop/jsonschema"
)

// DefaultName is the collection name written by every export.
const DefaultName = "RevoStream"

// Document is the own-schema scene collection.
type Document struct {
	Name   string  `json:"name" jsonschema:"required,description=Collection name"`
	Scenes []Scene `json:"scenes" jsonschema:"required"`
}

// Scene is one scene and its items bottom to top.
type Scene struct {
	Name    string   `json:"name" jsonschema:"required"`
	Sources []Source `json:"sources"`
}

// Source is one scene item together with its source.
type Source struct {
	Name      string            `json:"name" jsonschema:"required"`
	ID        string            `json:"id" jsonschema:"description=Engine source type id"`
	Settings  map[string]string `json:"settings"`
	Filters   []Filter          `json:"filters"`
	Visible   bool              `json:"visible"`
	Transform Transform         `json:"transform"`
}

// Filter is one entry of a source's filter chain.
type Filter struct {
	Name    string            `json:"name" jsonschema:"required"`
	Kind    string            `json:"kind" jsonschema:"required"`
	Enabled bool              `json:"enabled"`
	Params  map[string]string `json:"params"`
}

// Transform is the placement of an item. Size is the rendered pixel size and
// is null when the source reports no intrinsic size.
type Transform struct {
	Pos   Vec2  `json:"pos"`
	Scale Vec2  `json:"scale"`
	Size  *Size `json:"size"`
}

// Vec2 is a point or scale pair.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a pixel extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// JSONSchema allows the null written for sources without an intrinsic size.
func (Size) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("width", &jsonschema.Schema{Type: "number"})
	props.Set("height", &jsonschema.Schema{Type: "number"})
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "null"},
			{Type: "object", Properties: props, Required: []string{"width", "height"}},
		},
	}
}
