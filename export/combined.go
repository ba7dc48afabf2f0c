package export

import (
	"fmt"
	"sort"

	"github.com/sfomuseum/go-imagery-index/catalog"
	"github.com/sfomuseum/go-imagery-index/locationset"
)

// Combined merges all the sources that resolve to the same geometry into
// one feature per distinct resolved region, with the source records
// attached under properties.sources. Output features are sorted by id so
// the published artifact is diff-stable.
func Combined(sources map[string]*catalog.Source, resolver locationset.Resolver) (*catalog.FeatureCollection, error) {

	keep := map[string]*catalog.Feature{}
	groups := map[string]map[string]*catalog.Source{}

	for _, id := range sortedIDs(sources) {

		s := sources[id]

		resolved, err := resolver.Resolve(s.LocationSet)

		if err != nil {
			return nil, fmt.Errorf("Failed to resolve locationSet for '%s', %w", id, err)
		}

		f, ok := keep[resolved.ID]

		if !ok {

			f = resolved.CloneFeature()

			group := map[string]*catalog.Source{}
			f.Properties["sources"] = group

			keep[resolved.ID] = f
			groups[resolved.ID] = group
		}

		// Each group holds its own copy so later mutation of one export
		// can not bleed into another.
		groups[resolved.ID][id] = s.Clone()
	}

	features := make([]*catalog.Feature, 0, len(keep))

	for _, f := range keep {
		features = append(features, f)
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].ID < features[j].ID
	})

	return catalog.NewFeatureCollection(features), nil
}
