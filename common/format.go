package common

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"
)

// Widths for the pretty-compact serializer. Record files keep arrays
// inline up to a readable line length; published artifacts keep almost
// everything inline so coordinate rings stay on one line.
const (
	RecordWidth   = 100
	ExportWidth   = 80
	ArtifactWidth = 99999
)

// Format returns the canonical pretty-printed encoding of v: stable key
// order from the struct tags, arrays and objects inlined up to width
// columns, two-space indent and a trailing newline.
func Format(v any, width int) ([]byte, error) {

	body, err := json.Marshal(v)

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal record, %w", err)
	}

	opts := &pretty.Options{
		Width:  width,
		Indent: "  ",
	}

	body = pretty.PrettyOptions(body, opts)

	if len(body) == 0 || body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}

	return body, nil
}

// FormatMin returns the minified encoding of v, used for the .min
// variants of published artifacts.
func FormatMin(v any) ([]byte, error) {

	body, err := json.Marshal(v)

	if err != nil {
		return nil, fmt.Errorf("Failed to marshal record, %w", err)
	}

	return body, nil
}
