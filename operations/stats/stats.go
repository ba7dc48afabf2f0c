// Package stats reports per-file sizes for the record corpus so authors
// can spot regions that should be simplified. Read-only, never fatal to
// the catalog itself.
package stats

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"text/tabwriter"

	"github.com/sfomuseum/go-imagery-index/common"
)

type Options struct {
	FeaturesDir string
	SourcesDir  string
}

type row struct {
	path string
	size int
}

// Run prints a per-file size table, largest first, with totals per
// record category.
func Run(ctx context.Context, opts *Options) error {

	feature_rows, err := collect(ctx, opts.FeaturesDir, ".geojson")

	if err != nil {
		return err
	}

	source_rows, err := collect(ctx, opts.SourcesDir, ".json")

	if err != nil {
		return err
	}

	printTable("Features", feature_rows)
	printTable("Sources", source_rows)

	total := sum(feature_rows) + sum(source_rows)
	fmt.Printf("Total: %s in %d files\n", humanize(total), len(feature_rows)+len(source_rows))

	return nil
}

func collect(ctx context.Context, root string, suffix string) ([]row, error) {

	bucket, err := common.OpenBucket(ctx, root)

	if err != nil {
		return nil, err
	}

	defer bucket.Close()

	var rows []row

	cb := func(key string, body []byte) error {

		rows = append(rows, row{
			path: path.Join(root, key),
			size: len(body),
		})

		return nil
	}

	err = common.CrawlRecords(ctx, bucket, suffix, cb)

	if err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].size > rows[j].size
	})

	return rows, nil
}

func printTable(label string, rows []row) {

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "File\tSize\n")

	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r.path, humanize(r.size))
	}

	w.Flush()

	fmt.Printf("%s: %s in %d files\n\n", label, humanize(sum(rows)), len(rows))
}

func sum(rows []row) int {

	total := 0

	for _, r := range rows {
		total += r.size
	}

	return total
}

func humanize(n int) string {

	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
