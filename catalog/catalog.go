package catalog

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Well-known location references denoting "the whole world". A source
// whose locationSet includes either of these covers every region and is
// always translatable.
const (
	WorldwideM49      = "001"
	WorldwideWikidata = "Q2"
)

// IsWorldwide reports whether ref is one of the well-known worldwide
// location references. Matching is case-insensitive.
func IsWorldwide(ref string) bool {
	return strings.EqualFold(ref, WorldwideM49) || strings.EqualFold(ref, WorldwideWikidata)
}

// Feature is a named boundary region used to describe the coverage area
// of one or more imagery sources. The JSON field order is canonical and
// is what record files are rewritten with.
type Feature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Properties map[string]any    `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// FeatureCollection is the published set of all boundary regions.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

func NewFeatureCollection(features []*Feature) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// Clone returns a deep copy of f. Geometry and properties are copied so
// the clone can be mutated freely.
func (f *Feature) Clone() *Feature {

	new_f := &Feature{
		Type: f.Type,
		ID:   f.ID,
	}

	if f.Geometry != nil {
		new_f.Geometry = geojson.NewGeometry(orb.Clone(f.Geometry.Geometry()))
	}

	if f.Properties != nil {
		new_f.Properties = make(map[string]any, len(f.Properties))

		for k, v := range f.Properties {
			new_f.Properties[k] = v
		}
	}

	return new_f
}

// AreaKm2 returns the geodesic area of g in square kilometers, rounded
// to two decimal places.
func AreaKm2(g orb.Geometry) float64 {

	if g == nil {
		return 0
	}

	area := geo.Area(g) / 1e6
	return math.Round(area*100) / 100
}

// LocationSet is an include/exclude list of location references defining
// a source's effective coverage area.
type LocationSet struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude,omitempty"`
}

// Attribution describes how an imagery source must be credited.
type Attribution struct {
	Required bool   `json:"required,omitempty"`
	URL      string `json:"url,omitempty"`
	Text     string `json:"text,omitempty"`
	HTML     string `json:"html,omitempty"`
}

func (a *Attribution) Clone() *Attribution {

	if a == nil {
		return nil
	}

	new_a := *a
	return &new_a
}

// Source is a single imagery endpoint definition. The JSON field order
// is canonical; normalization produces Source values and everything
// downstream serializes them with this shape.
type Source struct {
	ID                   string         `json:"id"`
	Type                 string         `json:"type"`
	LocationSet          LocationSet    `json:"locationSet"`
	CountryCode          string         `json:"country_code,omitempty"`
	Name                 string         `json:"name,omitempty"`
	Description          string         `json:"description,omitempty"`
	URL                  string         `json:"url,omitempty"`
	Category             string         `json:"category,omitempty"`
	MinZoom              int            `json:"min_zoom,omitempty"`
	MaxZoom              int            `json:"max_zoom,omitempty"`
	PermissionOSM        string         `json:"permission_osm,omitempty"`
	License              string         `json:"license,omitempty"`
	LicenseURL           string         `json:"license_url,omitempty"`
	PrivacyPolicyURL     string         `json:"privacy_policy_url,omitempty"`
	Best                 bool           `json:"best,omitempty"`
	StartDate            string         `json:"start_date,omitempty"`
	EndDate              string         `json:"end_date,omitempty"`
	Overlay              bool           `json:"overlay,omitempty"`
	Icon                 string         `json:"icon,omitempty"`
	I18n                 bool           `json:"i18n,omitempty"`
	AvailableProjections []string       `json:"available_projections,omitempty"`
	Attribution          *Attribution   `json:"attribution,omitempty"`
	NoTileHeader         map[string]any `json:"no_tile_header,omitempty"`
}

// Clone returns a deep copy of s.
func (s *Source) Clone() *Source {

	new_s := *s

	if s.LocationSet.Include != nil {
		new_s.LocationSet.Include = append([]string(nil), s.LocationSet.Include...)
	}

	if s.LocationSet.Exclude != nil {
		new_s.LocationSet.Exclude = append([]string(nil), s.LocationSet.Exclude...)
	}

	if s.AvailableProjections != nil {
		new_s.AvailableProjections = append([]string(nil), s.AvailableProjections...)
	}

	new_s.Attribution = s.Attribution.Clone()

	if s.NoTileHeader != nil {
		new_s.NoTileHeader = make(map[string]any, len(s.NoTileHeader))

		for k, v := range s.NoTileHeader {
			new_s.NoTileHeader[k] = v
		}
	}

	return &new_s
}

// MarshalSource returns the canonical JSON encoding of s, suitable for
// surgical edits with sjson in the exporters.
func MarshalSource(s *Source) (json.RawMessage, error) {
	return json.Marshal(s)
}

// AttributionStrings is the translatable subset of an attribution.
type AttributionStrings struct {
	Text string `json:"text" yaml:"text"`
}

// TranslationStrings collects the translatable strings for a single
// source, keyed by source id in the published locale table.
type TranslationStrings struct {
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Attribution *AttributionStrings `json:"attribution,omitempty" yaml:"attribution,omitempty"`
}
