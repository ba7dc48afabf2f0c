package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const togoFeature = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": { "id": "stale" },
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0.123456, 0], [0.123456, 1], [1, 1], [1, 0], [0.123456, 0]]]
      }
    }
  ]
}`

const demoSource = `{
  "id": "demo",
  "type": "tms",
  "locationSet": { "include": ["001"] },
  "name": "Demo",
  "description": "Worldwide demo imagery",
  "url": "https://demo.example.com/{z}/{x}/{y}.png",
  "attribution": { "text": "© Demo" }
}`

const togoSource = `{
  "id": "TogoAerial",
  "type": "wms",
  "locationSet": { "include": ["togo.geojson"] },
  "name": "Togo Aerial",
  "url": "https://wms.example.com/?layers=togo",
  "available_projections": ["EPSG:4326", "EPSG:3857", "EPSG:3857"]
}`

func writeFixtures(t *testing.T, root string) *Options {

	features := filepath.Join(root, "features")
	sources := filepath.Join(root, "sources")

	require.NoError(t, os.MkdirAll(features, 0755))
	require.NoError(t, os.MkdirAll(sources, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(features, "togo.geojson"), []byte(togoFeature), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sources, "demo.json"), []byte(demoSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sources, "togo_aerial.json"), []byte(togoSource), 0644))

	return &Options{
		FeaturesDir: features,
		SourcesDir:  sources,
		DistDir:     filepath.Join(root, "dist"),
		I18nPath:    filepath.Join(root, "i18n", "en.yaml"),
	}
}

func TestRun(t *testing.T) {

	ctx := context.Background()

	opts := writeFixtures(t, t.TempDir())

	require.NoError(t, Run(ctx, opts))

	// The record file is rewritten in canonical form: unwrapped, id from
	// the file name, properties.id stripped, coordinates rounded.

	feature_body, err := os.ReadFile(filepath.Join(opts.FeaturesDir, "togo.geojson"))
	require.NoError(t, err)

	assert.Equal(t, "Feature", gjson.GetBytes(feature_body, "type").String())
	assert.Equal(t, "togo.geojson", gjson.GetBytes(feature_body, "id").String())
	assert.False(t, gjson.GetBytes(feature_body, "properties.id").Exists())
	assert.Equal(t, 0.1235, gjson.GetBytes(feature_body, "geometry.coordinates.0.0.0").Float())

	// Published artifacts

	fc_body, err := os.ReadFile(filepath.Join(opts.DistDir, "featureCollection.json"))
	require.NoError(t, err)

	assert.Equal(t, "togo.geojson", gjson.GetBytes(fc_body, "features.0.id").String())

	sources_body, err := os.ReadFile(filepath.Join(opts.DistDir, "sources.json"))
	require.NoError(t, err)

	assert.True(t, gjson.GetBytes(sources_body, "demo.i18n").Bool(), "worldwide source must be translatable")
	assert.False(t, gjson.GetBytes(sources_body, "TogoAerial.i18n").Exists())

	projections := gjson.GetBytes(sources_body, "TogoAerial.available_projections").Array()
	require.Len(t, projections, 2)
	assert.Equal(t, "EPSG:3857", projections[0].String())
	assert.Equal(t, "EPSG:4326", projections[1].String())

	i18n_body, err := os.ReadFile(opts.I18nPath)
	require.NoError(t, err)

	assert.Contains(t, string(i18n_body), "demo")
	assert.Contains(t, string(i18n_body), "name: Demo")
	assert.NotContains(t, string(i18n_body), "TogoAerial", "non-i18n sources have no translation strings")
}

func TestRunIsIdempotent(t *testing.T) {

	ctx := context.Background()

	opts := writeFixtures(t, t.TempDir())

	require.NoError(t, Run(ctx, opts))

	paths := []string{
		filepath.Join(opts.FeaturesDir, "togo.geojson"),
		filepath.Join(opts.SourcesDir, "demo.json"),
		filepath.Join(opts.SourcesDir, "togo_aerial.json"),
		filepath.Join(opts.DistDir, "featureCollection.json"),
		filepath.Join(opts.DistDir, "sources.json"),
		opts.I18nPath,
	}

	first := map[string][]byte{}

	for _, p := range paths {

		body, err := os.ReadFile(p)
		require.NoError(t, err)

		first[p] = body
	}

	require.NoError(t, Run(ctx, opts))

	for _, p := range paths {

		body, err := os.ReadFile(p)
		require.NoError(t, err)

		assert.Equal(t, string(first[p]), string(body), p)
	}
}

func TestRunDuplicateSourceID(t *testing.T) {

	ctx := context.Background()

	opts := writeFixtures(t, t.TempDir())

	duplicate := strings.Replace(demoSource, `"name": "Demo"`, `"name": "Demo Again"`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(opts.SourcesDir, "demo_again.json"), []byte(duplicate), 0644))

	err := Run(ctx, opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Duplicate source id: demo")

	// Nothing may be published on a failed run.

	_, err = os.Stat(filepath.Join(opts.DistDir, "sources.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunInvalidIncludeLocation(t *testing.T) {

	ctx := context.Background()

	opts := writeFixtures(t, t.TempDir())

	broken := strings.Replace(togoSource, `"include": ["togo.geojson"]`, `"include": ["atlantis.geojson"]`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(opts.SourcesDir, "togo_aerial.json"), []byte(broken), 0644))

	err := Run(ctx, opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid include location: atlantis.geojson")
	assert.Contains(t, err.Error(), "togo_aerial.json")
}

func TestRunDegenerateLocationSet(t *testing.T) {

	ctx := context.Background()

	opts := writeFixtures(t, t.TempDir())

	// Excluding the only included location leaves nothing to cover.

	degenerate := strings.Replace(togoSource, `"locationSet": { "include": ["togo.geojson"] }`, `"locationSet": { "include": ["togo.geojson"], "exclude": ["togo.geojson"] }`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(opts.SourcesDir, "togo_aerial.json"), []byte(degenerate), 0644))

	err := Run(ctx, opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolves to an empty feature")
	assert.Contains(t, err.Error(), "togo_aerial.json")
}

func TestRunMalformedRecord(t *testing.T) {

	ctx := context.Background()

	opts := writeFixtures(t, t.TempDir())

	require.NoError(t, os.WriteFile(filepath.Join(opts.FeaturesDir, "broken.geojson"), []byte("{"), 0644))

	err := Run(ctx, opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.geojson")
}
