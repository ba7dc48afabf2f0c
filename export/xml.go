package export

import (
	"encoding/xml"
	"fmt"

	"github.com/sfomuseum/go-imagery-index/catalog"
	"github.com/sfomuseum/go-imagery-index/locationset"
)

// Imagery is the legacy JOSM imagery document: one entry per source.
// https://josm.openstreetmap.de/wiki/Maps#Documentation
type Imagery struct {
	XMLName xml.Name `xml:"imagery"`
	Entries []*Entry `xml:"entry"`
}

type Entry struct {
	Overlay         bool         `xml:"overlay,attr,omitempty"`
	Best            bool         `xml:"eli-best,attr,omitempty"`
	Name            string       `xml:"name,omitempty"`
	ID              string       `xml:"id,omitempty"`
	Category        string       `xml:"category,omitempty"`
	Type            string       `xml:"type,omitempty"`
	Description     string       `xml:"description,omitempty"`
	URL             string       `xml:"url,omitempty"`
	MaxZoom         int          `xml:"max-zoom,omitempty"`
	MinZoom         int          `xml:"min-zoom,omitempty"`
	PermissionRef   string       `xml:"permission-ref,omitempty"`
	Icon            string       `xml:"icon,omitempty"`
	CountryCode     string       `xml:"country_code,omitempty"`
	Date            string       `xml:"date,omitempty"`
	AttributionURL  string       `xml:"attribution-url,omitempty"`
	AttributionText string       `xml:"attribution-text,omitempty"`
	Projections     *Projections `xml:"projections,omitempty"`
	Bounds          *Bounds      `xml:"bounds,omitempty"`
}

type Projections struct {
	Codes []string `xml:"code"`
}

type Bounds struct {
	MinLat float64  `xml:"min-lat,attr"`
	MinLon float64  `xml:"min-lon,attr"`
	MaxLat float64  `xml:"max-lat,attr"`
	MaxLon float64  `xml:"max-lon,attr"`
	Shapes []*Shape `xml:"shape"`
}

type Shape struct {
	Points []*Point `xml:"point"`
}

type Point struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

// XML emits the legacy JOSM imagery document. Worldwide sources carry no
// bounds element.
func XML(sources map[string]*catalog.Source, resolver locationset.Resolver, icon_base string) (*Imagery, error) {

	doc := &Imagery{}

	for _, id := range sortedIDs(sources) {

		s := sources[id]

		entry := &Entry{
			Overlay:       s.Overlay,
			Best:          s.Best,
			Name:          s.Name,
			ID:            s.ID,
			Category:      s.Category,
			Type:          s.Type,
			Description:   s.Description,
			URL:           s.URL,
			MaxZoom:       s.MaxZoom,
			MinZoom:       s.MinZoom,
			PermissionRef: s.LicenseURL,
			CountryCode:   s.CountryCode,
		}

		if s.Icon != "" {
			entry.Icon = IconURL(icon_base, s.Icon)
		}

		if s.StartDate != "" {
			entry.Date = dateRange(s.StartDate, s.EndDate)
		}

		if s.Attribution != nil {
			entry.AttributionURL = s.Attribution.URL
			entry.AttributionText = s.Attribution.Text
		}

		if len(s.AvailableProjections) > 0 {
			entry.Projections = &Projections{
				Codes: append([]string(nil), s.AvailableProjections...),
			}
		}

		resolved, err := resolver.Resolve(s.LocationSet)

		if err != nil {
			return nil, fmt.Errorf("Failed to resolve locationSet for '%s', %w", id, err)
		}

		if resolved.ID != catalog.WorldwideWikidata && resolved.Feature.Geometry != nil {
			entry.Bounds = bounds(resolved)
		}

		doc.Entries = append(doc.Entries, entry)
	}

	return doc, nil
}

func dateRange(start string, end string) string {

	if end == start {
		return start
	}

	if end == "" {
		end = "-"
	}

	return start + ";" + end
}

func bounds(resolved *locationset.Resolved) *Bounds {

	rings := outerRings(resolved.Feature.Geometry.Geometry())

	if len(rings) == 0 {
		return nil
	}

	b := &Bounds{
		MinLat: 90,
		MaxLat: -90,
		MinLon: 180,
		MaxLon: -180,
	}

	for _, ring := range rings {

		shape := &Shape{}

		for _, pt := range ring {

			shape.Points = append(shape.Points, &Point{
				Lat: pt[1],
				Lon: pt[0],
			})

			if pt[0] < b.MinLon {
				b.MinLon = pt[0]
			}

			if pt[0] > b.MaxLon {
				b.MaxLon = pt[0]
			}

			if pt[1] < b.MinLat {
				b.MinLat = pt[1]
			}

			if pt[1] > b.MaxLat {
				b.MaxLat = pt[1]
			}
		}

		b.Shapes = append(b.Shapes, shape)
	}

	return b
}

// MarshalXML serializes doc with the standard XML header. The pretty
// variant is indented for humans, the other is single-line for the .min
// artifact.
func MarshalXML(doc *Imagery, pretty_print bool) ([]byte, error) {

	var body []byte
	var err error

	if pretty_print {
		body, err = xml.MarshalIndent(doc, "", "  ")
	} else {
		body, err = xml.Marshal(doc)
	}

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal imagery document, %w", err)
	}

	out := append([]byte(xml.Header), body...)

	if pretty_print {
		out = append(out, '\n')
	}

	return out, nil
}
