package params

import (
	"fmt"

	"revostream/internal/engine"
)

// PropertySpec is the caller-facing description of one source property.
type PropertySpec struct {
	Key     string           `json:"key"`
	Label   string           `json:"label"`
	Kind    string           `json:"kind"`
	Hint    string           `json:"hint,omitempty"`
	Options []PropertyOption `json:"options,omitempty"`
}

// PropertyOption is one choice of a list property.
type PropertyOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PropertySpecs flattens props, descending into groups and skipping buttons
// and invalid entries. Info entries without a key get a positional key.
func PropertySpecs(props []engine.Property) []PropertySpec {
	var out []PropertySpec
	collectSpecs(props, &out)
	return out
}

func collectSpecs(props []engine.Property, out *[]PropertySpec) {
	for _, p := range props {
		switch p.Kind {
		case engine.PropGroup:
			collectSpecs(p.Group, out)
			continue
		case engine.PropButton, engine.PropInvalid:
			continue
		}
		key := p.Key
		label := p.Label
		if label == "" {
			label = key
		}
		spec := PropertySpec{Label: label, Hint: p.Hint}
		switch p.Kind {
		case engine.PropBool, engine.PropInt, engine.PropFloat, engine.PropPath,
			engine.PropEditableList, engine.PropInfo:
			spec.Kind = string(p.Kind)
		case engine.PropColor, engine.PropColorAlpha:
			spec.Kind = "color"
		case engine.PropList:
			spec.Kind = "list"
			for _, o := range p.Options {
				optLabel := o.Label
				if optLabel == "" {
					optLabel = key
				}
				spec.Options = append(spec.Options, PropertyOption{Value: o.Value, Label: optLabel})
			}
		default:
			spec.Kind = "text"
		}
		if spec.Kind == "info" && key == "" {
			key = fmt.Sprintf("__info_%d", len(*out))
		}
		if key == "" {
			continue
		}
		spec.Key = key
		*out = append(*out, spec)
	}
}

// EditableListKeys collects the keys of editable list properties, including
// those nested in groups.
func EditableListKeys(props []engine.Property) KeySet {
	keys := make(KeySet)
	var walk func([]engine.Property)
	walk = func(ps []engine.Property) {
		for _, p := range ps {
			if p.Kind == engine.PropGroup {
				walk(p.Group)
				continue
			}
			if p.Kind == engine.PropEditableList && p.Key != "" {
				keys[p.Key] = true
			}
		}
	}
	walk(props)
	return keys
}

// ColorKeys lists the keys of color specs.
func ColorKeys(specs []PropertySpec) []string {
	var keys []string
	for _, s := range specs {
		if s.Kind == "color" {
			keys = append(keys, s.Key)
		}
	}
	return keys
}
