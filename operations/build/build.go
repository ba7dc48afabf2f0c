// Package build implements the "build" operation: validate, normalize
// and rewrite every catalog record, then publish the canonical
// artifacts. Any validation failure aborts the whole run; nothing is
// partially published.
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/sfomuseum/go-imagery-index/catalog"
	"github.com/sfomuseum/go-imagery-index/common"
	"github.com/sfomuseum/go-imagery-index/locationset"
	"github.com/sfomuseum/go-imagery-index/normalize"
	"github.com/sfomuseum/go-imagery-index/schema"
)

type Options struct {
	// The directory containing boundary region records, one .geojson file per region.
	FeaturesDir string
	// The directory containing imagery source records, one .json file per source.
	SourcesDir string
	// The directory canonical artifacts are published to.
	DistDir string
	// The path the English locale string table is written to.
	I18nPath string
}

// Run executes the build operation to completion or returns the first
// fatal error.
func Run(ctx context.Context, opts *Options) error {

	// Start clean so a failed run can not leave stale artifacts behind.

	stale := []string{
		filepath.Join(opts.DistDir, "featureCollection.json"),
		filepath.Join(opts.DistDir, "sources.json"),
		opts.I18nPath,
	}

	for _, stale_path := range stale {

		err := os.Remove(stale_path)

		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("Failed to remove '%s', %w", stale_path, err)
		}
	}

	validator, err := schema.NewValidator()

	if err != nil {
		return err
	}

	features, err := collectFeatures(ctx, validator, opts)

	if err != nil {
		return err
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].ID < features[j].ID
	})

	fc := catalog.NewFeatureCollection(features)

	resolver, err := locationset.NewConflation(fc)

	if err != nil {
		return err
	}

	sources, tstrings, err := collectSources(ctx, validator, resolver, opts)

	if err != nil {
		return err
	}

	fc_body, err := common.Format(fc, common.ArtifactWidth)

	if err != nil {
		return err
	}

	err = common.WriteFileAtomic(filepath.Join(opts.DistDir, "featureCollection.json"), fc_body)

	if err != nil {
		return err
	}

	sources_body, err := common.Format(sources, common.ArtifactWidth)

	if err != nil {
		return err
	}

	err = common.WriteFileAtomic(filepath.Join(opts.DistDir, "sources.json"), sources_body)

	if err != nil {
		return err
	}

	i18n_body, err := localeStrings(tstrings)

	if err != nil {
		return err
	}

	return common.WriteFileAtomic(opts.I18nPath, i18n_body)
}

func collectFeatures(ctx context.Context, validator *schema.Validator, opts *Options) ([]*catalog.Feature, error) {

	bucket, err := common.OpenBucket(ctx, opts.FeaturesDir)

	if err != nil {
		return nil, err
	}

	defer bucket.Close()

	var features []*catalog.Feature
	files := map[string]string{}

	fmt.Print("Features: ")

	cb := func(key string, body []byte) error {

		display := path.Join(opts.FeaturesDir, key)

		f, err := normalize.Feature(key, body)

		if err != nil {
			return fileError(err.Error(), display)
		}

		if area := normalize.AreaKm2(f); area < normalize.MinFeatureAreaKm2 {
			log.Printf("Warning - small area (%v km²). Use a point 'includeLocation' instead.\n  %s", area, display)
		}

		violations, err := validator.ValidateFeature(f)

		if err != nil {
			return err
		}

		if len(violations) > 0 {
			return violationError(display, violations)
		}

		formatted, err := common.Format(f, common.RecordWidth)

		if err != nil {
			return err
		}

		_, err = common.Rewrite(ctx, bucket, key, formatted, body)

		if err != nil {
			return err
		}

		if prev, ok := files[f.ID]; ok {
			return fmt.Errorf("Duplicate filenames: %s\n  %s\n  %s", f.ID, prev, display)
		}

		features = append(features, f)
		files[f.ID] = display

		fmt.Print("✓")
		return nil
	}

	err = common.CrawlRecords(ctx, bucket, ".geojson", cb)

	if err != nil {
		return nil, err
	}

	fmt.Printf(" %d\n", len(files))
	return features, nil
}

func collectSources(ctx context.Context, validator *schema.Validator, resolver locationset.Resolver, opts *Options) (map[string]*catalog.Source, map[string]catalog.TranslationStrings, error) {

	bucket, err := common.OpenBucket(ctx, opts.SourcesDir)

	if err != nil {
		return nil, nil, err
	}

	defer bucket.Close()

	sources := map[string]*catalog.Source{}
	tstrings := map[string]catalog.TranslationStrings{}
	files := map[string]string{}

	fmt.Print("Sources: ")

	cb := func(key string, body []byte) error {

		display := path.Join(opts.SourcesDir, key)

		var parsed any

		err := json.Unmarshal(body, &parsed)

		if err != nil {
			return fileError(err.Error(), display)
		}

		s := normalize.Source(body)

		violations, err := validator.ValidateSource(s)

		if err != nil {
			return err
		}

		if len(violations) > 0 {
			return violationError(display, violations)
		}

		for _, ref := range s.LocationSet.Include {

			if !resolver.ValidateLocation(ref) {
				return fmt.Errorf("Invalid include location: %s\n  %s", ref, display)
			}
		}

		for _, ref := range s.LocationSet.Exclude {

			if !resolver.ValidateLocation(ref) {
				return fmt.Errorf("Invalid exclude location: %s\n  %s", ref, display)
			}
		}

		resolved, err := resolver.Resolve(s.LocationSet)

		if err != nil {
			return fileError(err.Error(), display)
		}

		if resolved.IsEmpty() {
			return fileError(fmt.Sprintf("locationSet %s resolves to an empty feature.", resolved.ID), display)
		}

		formatted, err := common.Format(s, common.RecordWidth)

		if err != nil {
			return err
		}

		_, err = common.Rewrite(ctx, bucket, key, formatted, body)

		if err != nil {
			return err
		}

		if prev, ok := files[s.ID]; ok {
			return fmt.Errorf("Duplicate source id: %s\n  %s\n  %s", s.ID, prev, display)
		}

		sources[s.ID] = s
		files[s.ID] = display

		if s.I18n {

			ts := catalog.TranslationStrings{
				Name:        s.Name,
				Description: s.Description,
			}

			if s.Attribution != nil && s.Attribution.Text != "" {
				ts.Attribution = &catalog.AttributionStrings{
					Text: s.Attribution.Text,
				}
			}

			tstrings[s.ID] = ts
		}

		fmt.Print("✓")
		return nil
	}

	err = common.CrawlRecords(ctx, bucket, ".json", cb)

	if err != nil {
		return nil, nil, err
	}

	fmt.Printf(" %d\n", len(files))
	return sources, tstrings, nil
}

// localeStrings serializes the translation-string table as
// {en: {imagery: {...}}} with sorted source ids, so the locale file
// diffs cleanly.
func localeStrings(tstrings map[string]catalog.TranslationStrings) ([]byte, error) {

	ids := make([]string, 0, len(tstrings))

	for id := range tstrings {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	imagery := yaml.MapSlice{}

	for _, id := range ids {
		imagery = append(imagery, yaml.MapItem{Key: id, Value: tstrings[id]})
	}

	doc := yaml.MapSlice{
		{
			Key: "en",
			Value: yaml.MapSlice{
				{Key: "imagery", Value: imagery},
			},
		},
	}

	body, err := yaml.Marshal(doc)

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal locale strings, %w", err)
	}

	return body, nil
}

func fileError(msg string, path string) error {
	return fmt.Errorf("%s in:\n  %s", msg, path)
}

func violationError(path string, violations []schema.Violation) error {

	msgs := make([]string, len(violations))

	for i, v := range violations {
		msgs[i] = "  " + v.String()
	}

	return fmt.Errorf("Schema validation:\n  %s:\n%s", path, strings.Join(msgs, "\n"))
}
