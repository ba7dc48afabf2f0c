// Package schema validates catalog records against the project's JSON
// schemas. The GeoJSON meta-schema is registered as a resolvable
// sub-schema so the feature and source schemas can reference it.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/geojson.json
var geojsonSchema []byte

//go:embed schemas/feature.json
var featureSchema []byte

//go:embed schemas/source.json
var sourceSchema []byte

// Violation is a single schema violation: the path of the offending
// property and a human-readable description.
type Violation struct {
	Field       string
	Description string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s", v.Field, v.Description)
}

// Validator validates records against the feature and source schemas.
// It holds compiled schemas and is safe for reuse; construct one with
// NewValidator and pass it around rather than relying on ambient state.
type Validator struct {
	feature *gojsonschema.Schema
	source  *gojsonschema.Schema
}

func NewValidator() (*Validator, error) {

	feature_s, err := compile(featureSchema)

	if err != nil {
		return nil, fmt.Errorf("Failed to compile feature schema, %w", err)
	}

	source_s, err := compile(sourceSchema)

	if err != nil {
		return nil, fmt.Errorf("Failed to compile source schema, %w", err)
	}

	v := &Validator{
		feature: feature_s,
		source:  source_s,
	}

	return v, nil
}

// compile compiles a root schema with the GeoJSON meta-schema available
// for $ref resolution. A fresh loader per schema keeps the two compiled
// schemas independent.
func compile(root []byte) (*gojsonschema.Schema, error) {

	sl := gojsonschema.NewSchemaLoader()

	err := sl.AddSchemas(gojsonschema.NewBytesLoader(geojsonSchema))

	if err != nil {
		return nil, fmt.Errorf("Failed to register GeoJSON schema, %w", err)
	}

	return sl.Compile(gojsonschema.NewBytesLoader(root))
}

// ValidateFeature validates the canonical encoding of f against the
// feature schema. A non-empty result means the record is invalid.
func (v *Validator) ValidateFeature(f any) ([]Violation, error) {
	return validate(v.feature, f)
}

// ValidateSource validates the canonical encoding of s against the
// source schema.
func (v *Validator) ValidateSource(s any) ([]Violation, error) {
	return validate(v.source, s)
}

func validate(s *gojsonschema.Schema, doc any) ([]Violation, error) {

	body, err := json.Marshal(doc)

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal record, %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(body))

	if err != nil {
		return nil, fmt.Errorf("Failed to validate record, %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	errors := result.Errors()
	violations := make([]Violation, len(errors))

	for i, e := range errors {
		violations[i] = Violation{
			Field:       e.Field(),
			Description: e.Description(),
		}
	}

	return violations, nil
}
