package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-imagery-index/catalog"
)

// Warning thresholds for boundary regions. Anything smaller than this is
// better represented as a point location than a polygon file.
const MinFeatureAreaKm2 = 2000.0

const coordinatePrecision = 4

type rawFeature struct {
	Type       string            `json:"type"`
	Properties map[string]any    `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Features   []json.RawMessage `json:"features"`
}

// Feature canonicalizes a single boundary region record. The steps run
// in a fixed order because later steps depend on earlier invariants:
// unwrap a single-feature FeatureCollection, rewind rings, round
// coordinates, derive the id from the file name, enforce polygonal
// geometry and strip the properties id.
func Feature(path string, body []byte) (*catalog.Feature, error) {

	var raw *rawFeature

	err := json.Unmarshal(body, &raw)

	if err != nil {
		return nil, err
	}

	// A FeatureCollection with a single feature inside (geojson.io likes
	// to make these). Any other collection shape falls through and fails
	// the geometry check below.

	if raw.Type == "FeatureCollection" && len(raw.Features) == 1 {

		var inner *rawFeature

		err := json.Unmarshal(raw.Features[0], &inner)

		if err != nil {
			return nil, err
		}

		raw = inner
	}

	f := &catalog.Feature{
		Type: "Feature",
		ID:   strings.ToLower(filepath.Base(path)),
	}

	if raw.Geometry == nil {
		return nil, fmt.Errorf("Feature missing coordinates")
	}

	geom := raw.Geometry.Geometry()

	switch geom.(type) {
	case orb.Polygon, orb.MultiPolygon:
		// pass
	default:
		return nil, fmt.Errorf(`Feature type must be "Polygon" or "MultiPolygon"`)
	}

	geom = rewind(geom)
	geom = roundCoordinates(geom, coordinatePrecision)

	if geometryIsEmpty(geom) {
		return nil, fmt.Errorf("Feature missing coordinates")
	}

	f.Geometry = geojson.NewGeometry(geom)

	if raw.Properties != nil {
		f.Properties = raw.Properties
	} else {
		f.Properties = map[string]any{}
	}

	// The id is derived from the file name so a competing id property is
	// always ambiguous.
	delete(f.Properties, "id")

	return f, nil
}

// AreaKm2 returns the geodesic area of f in square kilometers.
func AreaKm2(f *catalog.Feature) float64 {

	if f.Geometry == nil {
		return 0
	}

	return catalog.AreaKm2(f.Geometry.Geometry())
}

// rewind enforces right-hand winding: outer rings counter-clockwise,
// inner rings clockwise.
func rewind(g orb.Geometry) orb.Geometry {

	switch geom := g.(type) {
	case orb.Polygon:
		rewindPolygon(geom)
	case orb.MultiPolygon:
		for _, p := range geom {
			rewindPolygon(p)
		}
	}

	return g
}

func rewindPolygon(p orb.Polygon) {

	for i, ring := range p {

		if i == 0 {

			if ring.Orientation() == orb.CW {
				ring.Reverse()
			}

		} else {

			if ring.Orientation() == orb.CCW {
				ring.Reverse()
			}
		}
	}
}

// roundCoordinates rounds every coordinate to a fixed number of decimal
// digits. This bounds record file size and keeps diffs stable.
func roundCoordinates(g orb.Geometry, digits int) orb.Geometry {

	factor := math.Pow(10, float64(digits))

	round := func(pt orb.Point) orb.Point {
		return orb.Point{
			math.Round(pt[0]*factor) / factor,
			math.Round(pt[1]*factor) / factor,
		}
	}

	switch geom := g.(type) {
	case orb.Polygon:
		roundPolygon(geom, round)
	case orb.MultiPolygon:
		for _, p := range geom {
			roundPolygon(p, round)
		}
	}

	return g
}

func roundPolygon(p orb.Polygon, round func(orb.Point) orb.Point) {

	for _, ring := range p {

		for i, pt := range ring {
			ring[i] = round(pt)
		}
	}
}

func geometryIsEmpty(g orb.Geometry) bool {

	switch geom := g.(type) {
	case orb.Polygon:
		return len(geom) == 0
	case orb.MultiPolygon:
		return len(geom) == 0
	default:
		return true
	}
}
