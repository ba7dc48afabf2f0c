// Package export derives the legacy publish formats from the validated,
// normalized source set. Every exporter is a pure projection: no new
// validation happens here and resolver output is copied, never mutated.
package export

import (
	"sort"
	"strings"

	"github.com/sfomuseum/go-imagery-index/catalog"
)

// DefaultIconBase is the CDN prefix bare icon file names are rewritten
// under in the legacy exports.
const DefaultIconBase = "https://cdn.jsdelivr.net/gh/ideditor/imagery-index@main/dist/images/"

// IconURL rewrites a bare icon file name into an absolute CDN URL.
// Icons that are already absolute URLs pass through unchanged.
func IconURL(base string, icon string) string {

	lower := strings.ToLower(icon)

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return icon
	}

	return base + icon
}

func sortedIDs(sources map[string]*catalog.Source) []string {

	ids := make([]string, 0, len(sources))

	for id := range sources {
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids
}

func isWorldwide(ls catalog.LocationSet) bool {

	for _, ref := range ls.Include {

		if catalog.IsWorldwide(ref) {
			return true
		}
	}

	return false
}
