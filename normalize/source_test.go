package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceCanonicalProjection(t *testing.T) {

	body := []byte(`{
		"url": "https://tiles.example.com/{zoom}/{x}/{y}.png",
		"name": "Example Tiles",
		"id": "Example",
		"type": "tms",
		"country_code": "de",
		"locationSet": { "include": ["de-berlin.geojson"], "exclude": ["de-spandau.geojson"] },
		"unrecognized": "dropped silently",
		"attribution": { "text": "© Example", "required": true, "who": "nobody" }
	}`)

	s := Source(body)

	assert.Equal(t, "Example", s.ID)
	assert.Equal(t, "tms", s.Type)
	assert.Equal(t, []string{"de-berlin.geojson"}, s.LocationSet.Include)
	assert.Equal(t, []string{"de-spandau.geojson"}, s.LocationSet.Exclude)
	assert.Equal(t, "DE", s.CountryCode)
	assert.False(t, s.I18n)

	require.NotNil(t, s.Attribution)
	assert.True(t, s.Attribution.Required)
	assert.Equal(t, "© Example", s.Attribution.Text)

	// The allow-list is also what serializes: nothing unrecognized may
	// survive in the canonical encoding.

	enc, err := json.Marshal(s)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(enc, &round))

	_, ok := round["unrecognized"]
	assert.False(t, ok)
}

func TestSourceForcesI18nForWorldwide(t *testing.T) {

	for _, ref := range []string{"001", "Q2"} {

		body := []byte(`{
			"id": "demo",
			"type": "tms",
			"locationSet": { "include": ["` + ref + `"] },
			"name": "Demo",
			"url": "https://demo.example.com/{z}/{x}/{y}.png",
			"i18n": false
		}`)

		s := Source(body)

		if !s.I18n {
			t.Fatalf("Expected i18n forced true for worldwide ref %q", ref)
		}
	}
}

func TestSourceProjectionsDedupedAndSorted(t *testing.T) {

	body := []byte(`{
		"id": "demo",
		"type": "wms",
		"locationSet": { "include": ["001"] },
		"name": "Demo",
		"url": "https://demo.example.com/wms",
		"available_projections": ["EPSG:4326", "EPSG:3857", "EPSG:3857", "EPSG:900913"]
	}`)

	s := Source(body)

	assert.Equal(t, []string{"EPSG:3857", "EPSG:4326", "EPSG:900913"}, s.AvailableProjections)
}

func TestSortProjectionsNonNumericCodes(t *testing.T) {

	sorted := sortProjections([]string{"CRS:84", "EPSG:4326", "EPSG:3857", "CRS:83"})

	// Numeric EPSG codes first in ascending order, everything else after,
	// lexically.
	assert.Equal(t, []string{"EPSG:3857", "EPSG:4326", "CRS:83", "CRS:84"}, sorted)
}

func TestSourceNoTileHeader(t *testing.T) {

	body := []byte(`{
		"id": "demo",
		"type": "tms",
		"locationSet": { "include": ["001"] },
		"name": "Demo",
		"url": "https://demo.example.com/{z}/{x}/{y}.png",
		"no_tile_header": { "X-Missing": null }
	}`)

	s := Source(body)

	require.NotNil(t, s.NoTileHeader)

	_, ok := s.NoTileHeader["X-Missing"]
	assert.True(t, ok)
}
