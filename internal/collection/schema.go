package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"revostream/internal/services"
)

const schemaResource = "collection.json"

// Violation is one schema failure inside a collection document.
type Violation struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Location, v.Message)
}

// Schema returns the JSON Schema of the own collection document.
func Schema() ([]byte, error) {
	r := &invopop.Reflector{
		AllowAdditionalProperties:  true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}
	schema := r.Reflect(&Document{})
	schema.Title = "RevoStream Scene Collection"
	schema.Description = "Scenes with their sources, filters and placement."
	return json.MarshalIndent(schema, "", "  ")
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compiledErr    error
)

func compiled() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		raw, err := Schema()
		if err != nil {
			compiledErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaResource, bytes.NewReader(raw)); err != nil {
			compiledErr = fmt.Errorf("add collection schema: %w", err)
			return
		}
		compiledSchema, compiledErr = compiler.Compile(schemaResource)
	})
	return compiledSchema, compiledErr
}

// Validate checks raw against the own collection schema. A nil slice means
// the document is valid. Malformed JSON is an error, not a violation.
func Validate(raw []byte) ([]Violation, error) {
	schema, err := compiled()
	if err != nil {
		return nil, services.Failf(services.ErrConfiguration, "collection schema unavailable: %w", err)
	}
	doc, err := decodeInstance(raw)
	if err != nil {
		return nil, services.Failf(services.ErrValidation, "invalid JSON: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, services.Failf(services.ErrValidation, "schema validation failed: %v", err)
		}
		var out []Violation
		collectViolations(verr, &out)
		if len(out) == 0 {
			out = append(out, Violation{Location: "/", Message: verr.Message})
		}
		return out, nil
	}
	return nil, nil
}

// decodeInstance decodes a single JSON value with numbers kept as
// json.Number, the instance form the validator expects.
func decodeInstance(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after document")
	}
	return doc, nil
}

func collectViolations(err *jsonschema.ValidationError, out *[]Violation) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, Violation{Location: loc, Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, out)
	}
}
