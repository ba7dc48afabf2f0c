// Package locationset resolves include/exclude lists of location
// references into concrete boundary geometry. The pipeline uses it both
// to cross-check that a source's location set is non-degenerate and to
// materialize per-source geometry for the exporters.
package locationset

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-imagery-index/catalog"
)

// Resolved is the outcome of resolving a location set. It is shared
// between callers and must be treated as immutable; use CloneFeature
// before mutating anything.
type Resolved struct {
	ID      string
	Feature *catalog.Feature
}

// CloneFeature returns a deep copy of the resolved feature that the
// caller owns.
func (r *Resolved) CloneFeature() *catalog.Feature {
	return r.Feature.Clone()
}

// IsEmpty reports whether the resolved geometry is degenerate: no
// coordinates or zero area.
func (r *Resolved) IsEmpty() bool {

	if r.Feature.Geometry == nil {
		return true
	}

	area, ok := r.Feature.Properties["area"].(float64)

	if !ok || area == 0 {
		return true
	}

	switch geom := r.Feature.Geometry.Geometry().(type) {
	case orb.Polygon:
		return len(geom) == 0
	case orb.MultiPolygon:
		return len(geom) == 0
	default:
		return true
	}
}

// Resolver is the location conflation contract the pipeline consumes.
// Implementations are required to memoize repeated lookups of the same
// (include, exclude) set; the pipeline resolves every source once during
// the build pass and again per export pass.
type Resolver interface {
	ValidateLocation(ref string) bool
	Resolve(ls catalog.LocationSet) (*Resolved, error)
}

const cacheSize = 1024

// Conflation resolves location references against a fixed catalog of
// boundary features plus the built-in worldwide region. Member
// geometries are unioned into a MultiPolygon and excluded members are
// removed; overlapping rings are not dissolved, which every consumer of
// the resolved geometry (degeneracy checks, outer rings, bounds)
// tolerates.
type Conflation struct {
	features map[string]*catalog.Feature
	cache    *lru.Cache[string, *Resolved]
}

func NewConflation(fc *catalog.FeatureCollection) (*Conflation, error) {

	features := make(map[string]*catalog.Feature, len(fc.Features))

	for _, f := range fc.Features {
		features[strings.ToLower(f.ID)] = f
	}

	cache, err := lru.New[string, *Resolved](cacheSize)

	if err != nil {
		return nil, fmt.Errorf("Failed to create resolver cache, %w", err)
	}

	c := &Conflation{
		features: features,
		cache:    cache,
	}

	return c, nil
}

// ValidateLocation reports whether a single location reference is
// resolvable.
func (c *Conflation) ValidateLocation(ref string) bool {

	if catalog.IsWorldwide(ref) {
		return true
	}

	_, ok := c.features[strings.ToLower(ref)]
	return ok
}

// Resolve returns the union-minus-exclusions geometry for ls. Identical
// location sets share one cached result.
func (c *Conflation) Resolve(ls catalog.LocationSet) (*Resolved, error) {

	include := normalizeRefs(ls.Include)
	exclude := normalizeRefs(ls.Exclude)

	key := cacheKey(include, exclude)

	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	resolved, err := c.resolve(include, exclude)

	if err != nil {
		return nil, err
	}

	c.cache.Add(key, resolved)
	return resolved, nil
}

func (c *Conflation) resolve(include []string, exclude []string) (*Resolved, error) {

	for _, ref := range include {

		if catalog.IsWorldwide(ref) {
			return worldResolved(), nil
		}
	}

	excluded := make(map[string]bool, len(exclude))

	for _, ref := range exclude {

		if !c.ValidateLocation(ref) {
			return nil, fmt.Errorf("Unknown location %q", ref)
		}

		excluded[ref] = true
	}

	var members []*catalog.Feature

	for _, ref := range include {

		f, ok := c.features[ref]

		if !ok {
			return nil, fmt.Errorf("Unknown location %q", ref)
		}

		if excluded[ref] {
			continue
		}

		members = append(members, f)
	}

	id := compositeID(include, exclude)

	var geom orb.Geometry = unionGeometry(members)

	if len(include) == 1 && len(exclude) == 0 {

		// A single-member set passes the member through unchanged, the
		// way the member record itself is shaped.
		id = include[0]

		if members[0].Geometry != nil {
			geom = orb.Clone(members[0].Geometry.Geometry())
		}
	}

	f := &catalog.Feature{
		Type:     "Feature",
		ID:       id,
		Geometry: geojson.NewGeometry(geom),
		Properties: map[string]any{
			"area": catalog.AreaKm2(geom),
		},
	}

	resolved := &Resolved{
		ID:      id,
		Feature: f,
	}

	return resolved, nil
}

// unionGeometry merges the member polygons into one MultiPolygon,
// cloning ring data so resolved features never alias catalog features.
func unionGeometry(members []*catalog.Feature) orb.MultiPolygon {

	union := orb.MultiPolygon{}

	for _, f := range members {

		if f.Geometry == nil {
			continue
		}

		switch geom := orb.Clone(f.Geometry.Geometry()).(type) {
		case orb.Polygon:
			union = append(union, geom)
		case orb.MultiPolygon:
			union = append(union, geom...)
		}
	}

	return union
}

func worldResolved() *Resolved {

	world := orb.MultiPolygon{
		orb.Polygon{
			orb.Ring{
				orb.Point{-180, -90},
				orb.Point{180, -90},
				orb.Point{180, 90},
				orb.Point{-180, 90},
				orb.Point{-180, -90},
			},
		},
	}

	f := &catalog.Feature{
		Type:     "Feature",
		ID:       catalog.WorldwideWikidata,
		Geometry: geojson.NewGeometry(world),
		Properties: map[string]any{
			"area": catalog.AreaKm2(world),
		},
	}

	return &Resolved{
		ID:      catalog.WorldwideWikidata,
		Feature: f,
	}
}

func normalizeRefs(refs []string) []string {

	normalized := make([]string, len(refs))

	for i, ref := range refs {
		normalized[i] = strings.ToLower(ref)
	}

	sort.Strings(normalized)
	return normalized
}

func compositeID(include []string, exclude []string) string {

	id := "+[" + strings.Join(include, ",") + "]"

	if len(exclude) > 0 {
		id = id + "-[" + strings.Join(exclude, ",") + "]"
	}

	return id
}

func cacheKey(include []string, exclude []string) string {
	return compositeID(include, exclude)
}
