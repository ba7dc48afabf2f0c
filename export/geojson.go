package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-imagery-index/catalog"
	"github.com/sfomuseum/go-imagery-index/locationset"
	"github.com/tidwall/sjson"
)

// LegacyMeta describes a legacy export for its consumers.
type LegacyMeta struct {
	Generated string `json:"generated"`
	Version   string `json:"version"`
}

// LegacyFeature is one source flattened into a GeoJSON feature. The
// geometry is deliberately not omitempty: worldwide sources publish an
// explicit null geometry as a size optimization.
type LegacyFeature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Properties json.RawMessage   `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// LegacyCollection is the flattened per-source GeoJSON export.
type LegacyCollection struct {
	Type     string           `json:"type"`
	Meta     LegacyMeta       `json:"meta"`
	Features []*LegacyFeature `json:"features"`
}

// FlattenedGeoJSON emits one feature per source with the source record
// as properties and the resolved coverage geometry duplicated per
// source.
func FlattenedGeoJSON(sources map[string]*catalog.Source, resolver locationset.Resolver, icon_base string, generated time.Time) (*LegacyCollection, error) {

	features := make([]*LegacyFeature, 0, len(sources))

	for _, id := range sortedIDs(sources) {

		s := sources[id]

		props, err := legacyProperties(s, icon_base)

		if err != nil {
			return nil, err
		}

		f := &LegacyFeature{
			Type:       "Feature",
			ID:         id,
			Properties: props,
		}

		// Worldwide sources get a null geometry; everything worldwide
		// would otherwise repeat the same world-spanning polygon.

		if !isWorldwide(s.LocationSet) {

			resolved, err := resolver.Resolve(s.LocationSet)

			if err != nil {
				return nil, fmt.Errorf("Failed to resolve locationSet for '%s', %w", id, err)
			}

			clone := resolved.CloneFeature()
			f.Geometry = clone.Geometry
		}

		features = append(features, f)
	}

	collection := &LegacyCollection{
		Type: "FeatureCollection",
		Meta: LegacyMeta{
			Generated: generated.UTC().Format("2006-01-02 15:04:05"),
			Version:   "1.0",
		},
		Features: features,
	}

	return collection, nil
}

// legacyProperties is the source record minus its locationSet, with the
// icon rewritten to an absolute URL.
func legacyProperties(s *catalog.Source, icon_base string) (json.RawMessage, error) {

	body, err := catalog.MarshalSource(s)

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal source '%s', %w", s.ID, err)
	}

	body, err = sjson.DeleteBytes(body, "locationSet")

	if err != nil {
		return nil, fmt.Errorf("Failed to remove locationSet for '%s', %w", s.ID, err)
	}

	if s.Icon != "" {

		body, err = sjson.SetBytes(body, "icon", IconURL(icon_base, s.Icon))

		if err != nil {
			return nil, fmt.Errorf("Failed to rewrite icon for '%s', %w", s.ID, err)
		}
	}

	return json.RawMessage(body), nil
}

// outerRings extracts the ring set the extent and XML exports publish: a
// Polygon contributes all of its rings, a MultiPolygon contributes each
// member's outer ring only.
func outerRings(g orb.Geometry) []orb.Ring {

	switch geom := g.(type) {

	case orb.Polygon:

		rings := make([]orb.Ring, len(geom))

		for i, ring := range geom {
			rings[i] = append(orb.Ring(nil), ring...)
		}

		return rings

	case orb.MultiPolygon:

		rings := make([]orb.Ring, 0, len(geom))

		for _, p := range geom {

			if len(p) == 0 {
				continue
			}

			rings = append(rings, append(orb.Ring(nil), p[0]...))
		}

		return rings

	default:
		return nil
	}
}
