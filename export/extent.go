package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-imagery-index/catalog"
	"github.com/sfomuseum/go-imagery-index/locationset"
)

// Extent is a zoom range plus the coverage area flattened to bare rings.
type Extent struct {
	MaxZoom int        `json:"max_zoom,omitempty"`
	MinZoom int        `json:"min_zoom,omitempty"`
	Polygon []orb.Ring `json:"polygon,omitempty"`
}

// ExtentEntry is one source in the legacy extent export.
type ExtentEntry struct {
	ID                   string               `json:"id,omitempty"`
	Type                 string               `json:"type,omitempty"`
	Name                 string               `json:"name,omitempty"`
	Description          string               `json:"description,omitempty"`
	URL                  string               `json:"url,omitempty"`
	LicenseURL           string               `json:"license_url,omitempty"`
	PrivacyPolicyURL     string               `json:"privacy_policy_url,omitempty"`
	Best                 bool                 `json:"best,omitempty"`
	StartDate            string               `json:"start_date,omitempty"`
	EndDate              string               `json:"end_date,omitempty"`
	Overlay              bool                 `json:"overlay,omitempty"`
	Icon                 string               `json:"icon,omitempty"`
	CountryCode          string               `json:"country_code,omitempty"`
	AvailableProjections []string             `json:"available_projections,omitempty"`
	Attribution          *catalog.Attribution `json:"attribution,omitempty"`
	Extent               *Extent              `json:"extent"`
}

// ExtentJSON emits the legacy JSON array with the coverage geometry
// flattened into each entry's extent. Worldwide sources publish an empty
// extent.
func ExtentJSON(sources map[string]*catalog.Source, resolver locationset.Resolver, icon_base string) ([]*ExtentEntry, error) {

	entries := make([]*ExtentEntry, 0, len(sources))

	for _, id := range sortedIDs(sources) {

		s := sources[id]

		entry := &ExtentEntry{
			ID:                   s.ID,
			Type:                 s.Type,
			Name:                 s.Name,
			Description:          s.Description,
			URL:                  s.URL,
			LicenseURL:           s.LicenseURL,
			PrivacyPolicyURL:     s.PrivacyPolicyURL,
			Best:                 s.Best,
			StartDate:            s.StartDate,
			EndDate:              s.EndDate,
			Overlay:              s.Overlay,
			CountryCode:          s.CountryCode,
			AvailableProjections: append([]string(nil), s.AvailableProjections...),
			Attribution:          s.Attribution.Clone(),
		}

		if s.Icon != "" {
			entry.Icon = IconURL(icon_base, s.Icon)
		}

		extent := &Extent{
			MaxZoom: s.MaxZoom,
			MinZoom: s.MinZoom,
		}

		resolved, err := resolver.Resolve(s.LocationSet)

		if err != nil {
			return nil, fmt.Errorf("Failed to resolve locationSet for '%s', %w", id, err)
		}

		if resolved.ID != catalog.WorldwideWikidata && resolved.Feature.Geometry != nil {
			extent.Polygon = outerRings(resolved.Feature.Geometry.Geometry())
		}

		entry.Extent = extent
		entries = append(entries, entry)
	}

	return entries, nil
}
