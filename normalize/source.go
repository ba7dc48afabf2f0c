package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sfomuseum/go-imagery-index/catalog"
	"github.com/tidwall/gjson"
)

// sourceField is one entry in the canonical field projection: the raw
// property name and how its value lands on the canonical record. Fields
// absent from the table are dropped silently, which makes the allow-list
// a single piece of data rather than a chain of conditionals.
type sourceField struct {
	name  string
	apply func(gjson.Result, *catalog.Source)
}

var sourceFields = []sourceField{
	{"id", func(v gjson.Result, s *catalog.Source) { s.ID = v.String() }},
	{"type", func(v gjson.Result, s *catalog.Source) { s.Type = v.String() }},
	{"locationSet.include", func(v gjson.Result, s *catalog.Source) { s.LocationSet.Include = stringSlice(v) }},
	{"locationSet.exclude", func(v gjson.Result, s *catalog.Source) { s.LocationSet.Exclude = stringSlice(v) }},
	{"country_code", func(v gjson.Result, s *catalog.Source) { s.CountryCode = strings.ToUpper(v.String()) }},
	{"name", func(v gjson.Result, s *catalog.Source) { s.Name = v.String() }},
	{"description", func(v gjson.Result, s *catalog.Source) { s.Description = v.String() }},
	{"url", func(v gjson.Result, s *catalog.Source) { s.URL = v.String() }},
	{"category", func(v gjson.Result, s *catalog.Source) { s.Category = v.String() }},
	{"min_zoom", func(v gjson.Result, s *catalog.Source) { s.MinZoom = int(v.Int()) }},
	{"max_zoom", func(v gjson.Result, s *catalog.Source) { s.MaxZoom = int(v.Int()) }},
	{"permission_osm", func(v gjson.Result, s *catalog.Source) { s.PermissionOSM = v.String() }},
	{"license", func(v gjson.Result, s *catalog.Source) { s.License = v.String() }},
	{"license_url", func(v gjson.Result, s *catalog.Source) { s.LicenseURL = v.String() }},
	{"privacy_policy_url", func(v gjson.Result, s *catalog.Source) { s.PrivacyPolicyURL = v.String() }},
	{"best", func(v gjson.Result, s *catalog.Source) { s.Best = v.Bool() }},
	{"start_date", func(v gjson.Result, s *catalog.Source) { s.StartDate = v.String() }},
	{"end_date", func(v gjson.Result, s *catalog.Source) { s.EndDate = v.String() }},
	{"overlay", func(v gjson.Result, s *catalog.Source) { s.Overlay = v.Bool() }},
	{"icon", func(v gjson.Result, s *catalog.Source) { s.Icon = v.String() }},
	{"i18n", func(v gjson.Result, s *catalog.Source) { s.I18n = v.Bool() }},
	{"available_projections", func(v gjson.Result, s *catalog.Source) { s.AvailableProjections = sortProjections(stringSlice(v)) }},
	{"attribution", applyAttribution},
	{"no_tile_header", applyNoTileHeader},
}

// Source canonicalizes a single imagery source record: recognized fields
// are projected, in canonical order, into a new record and everything
// else is dropped. Sources covering the whole world are always flagged
// translatable.
func Source(body []byte) *catalog.Source {

	doc := gjson.ParseBytes(body)
	s := &catalog.Source{}

	for _, f := range sourceFields {

		v := doc.Get(f.name)

		if !v.Exists() {
			continue
		}

		f.apply(v, s)
	}

	for _, ref := range s.LocationSet.Include {

		if catalog.IsWorldwide(ref) {
			s.I18n = true
			break
		}
	}

	return s
}

func applyAttribution(v gjson.Result, s *catalog.Source) {

	attr := &catalog.Attribution{}

	if r := v.Get("required"); r.Exists() {
		attr.Required = r.Bool()
	}

	attr.URL = v.Get("url").String()
	attr.Text = v.Get("text").String()
	attr.HTML = v.Get("html").String()

	s.Attribution = attr
}

func applyNoTileHeader(v gjson.Result, s *catalog.Source) {

	headers := map[string]any{}

	v.ForEach(func(k, value gjson.Result) bool {
		headers[k.String()] = value.Value()
		return true
	})

	s.NoTileHeader = headers
}

func stringSlice(v gjson.Result) []string {

	elements := v.Array()
	values := make([]string, len(elements))

	for i, e := range elements {
		values[i] = e.String()
	}

	return values
}

// sortProjections deduplicates projection codes and sorts them ascending
// by the numeric suffix of an EPSG:nnnn style code. Codes with no
// numeric suffix sort after all numeric codes, lexically among
// themselves.
func sortProjections(codes []string) []string {

	seen := make(map[string]bool, len(codes))
	unique := make([]string, 0, len(codes))

	for _, c := range codes {

		if seen[c] {
			continue
		}

		seen[c] = true
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {

		a, a_ok := epsgCode(unique[i])
		b, b_ok := epsgCode(unique[j])

		switch {
		case a_ok && b_ok:
			return a < b
		case a_ok:
			return true
		case b_ok:
			return false
		default:
			return unique[i] < unique[j]
		}
	})

	return unique
}

func epsgCode(code string) (int, bool) {

	suffix, ok := strings.CutPrefix(code, "EPSG:")

	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(suffix)

	if err != nil {
		return 0, false
	}

	return n, true
}
