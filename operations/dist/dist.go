// Package dist implements the "dist" operation: read the published
// canonical artifacts and generate the legacy export formats from them.
package dist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sfomuseum/go-imagery-index/catalog"
	"github.com/sfomuseum/go-imagery-index/common"
	"github.com/sfomuseum/go-imagery-index/export"
	"github.com/sfomuseum/go-imagery-index/locationset"
)

type Options struct {
	// The directory the canonical artifacts were published to; legacy
	// exports are written beneath it.
	DistDir string
	// The CDN prefix bare icon file names are rewritten under.
	IconBase string
}

var outputs = []string{
	"featureCollection.min.json",
	"sources.min.json",
	"combined.json",
	"combined.min.json",
	"legacy/imagery.geojson",
	"legacy/imagery.min.geojson",
	"legacy/imagery.json",
	"legacy/imagery.min.json",
	"legacy/imagery.xml",
	"legacy/imagery.min.xml",
}

// Run executes the dist operation to completion or returns the first
// fatal error.
func Run(ctx context.Context, opts *Options) error {

	// Start clean so a failed run leaves missing exports rather than
	// stale ones.

	for _, rel := range outputs {

		stale := filepath.Join(opts.DistDir, filepath.FromSlash(rel))

		err := os.Remove(stale)

		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("Failed to remove '%s', %w", stale, err)
		}
	}

	fc_path := filepath.Join(opts.DistDir, "featureCollection.json")

	fc_body, err := os.ReadFile(fc_path)

	if err != nil {
		return fmt.Errorf("Failed to read '%s', %w", fc_path, err)
	}

	var fc catalog.FeatureCollection

	err = json.Unmarshal(fc_body, &fc)

	if err != nil {
		return fmt.Errorf("%s in:\n  %s", err, fc_path)
	}

	sources_path := filepath.Join(opts.DistDir, "sources.json")

	sources_body, err := os.ReadFile(sources_path)

	if err != nil {
		return fmt.Errorf("Failed to read '%s', %w", sources_path, err)
	}

	var sources map[string]*catalog.Source

	err = json.Unmarshal(sources_body, &sources)

	if err != nil {
		return fmt.Errorf("%s in:\n  %s", err, sources_path)
	}

	resolver, err := locationset.NewConflation(&fc)

	if err != nil {
		return err
	}

	// Minified copies of the canonical artifacts

	err = writeMin(opts, "featureCollection.min.json", &fc)

	if err != nil {
		return err
	}

	err = writeMin(opts, "sources.min.json", sources)

	if err != nil {
		return err
	}

	// Combined per-region export

	combined, err := export.Combined(sources, resolver)

	if err != nil {
		return err
	}

	err = writePretty(opts, "combined.json", combined)

	if err != nil {
		return err
	}

	err = writeMin(opts, "combined.min.json", combined)

	if err != nil {
		return err
	}

	// Flattened per-source GeoJSON

	flattened, err := export.FlattenedGeoJSON(sources, resolver, opts.IconBase, time.Now())

	if err != nil {
		return err
	}

	err = writePretty(opts, "legacy/imagery.geojson", flattened)

	if err != nil {
		return err
	}

	err = writeMin(opts, "legacy/imagery.min.geojson", flattened)

	if err != nil {
		return err
	}

	// Extent JSON

	entries, err := export.ExtentJSON(sources, resolver, opts.IconBase)

	if err != nil {
		return err
	}

	err = writePretty(opts, "legacy/imagery.json", entries)

	if err != nil {
		return err
	}

	err = writeMin(opts, "legacy/imagery.min.json", entries)

	if err != nil {
		return err
	}

	// JOSM XML

	doc, err := export.XML(sources, resolver, opts.IconBase)

	if err != nil {
		return err
	}

	xml_body, err := export.MarshalXML(doc, true)

	if err != nil {
		return err
	}

	err = writeArtifact(opts, "legacy/imagery.xml", xml_body)

	if err != nil {
		return err
	}

	xml_min, err := export.MarshalXML(doc, false)

	if err != nil {
		return err
	}

	return writeArtifact(opts, "legacy/imagery.min.xml", xml_min)
}

func writePretty(opts *Options, rel string, v any) error {

	body, err := common.Format(v, common.ExportWidth)

	if err != nil {
		return err
	}

	return writeArtifact(opts, rel, body)
}

func writeMin(opts *Options, rel string, v any) error {

	body, err := common.FormatMin(v)

	if err != nil {
		return err
	}

	return writeArtifact(opts, rel, body)
}

func writeArtifact(opts *Options, rel string, body []byte) error {

	abs := filepath.Join(opts.DistDir, filepath.FromSlash(rel))

	err := common.WriteFileAtomic(abs, body)

	if err != nil {
		return err
	}

	fmt.Printf("%s ✓\n", rel)
	return nil
}
