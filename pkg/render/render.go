package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/railmap/pkg/mapmodel"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// Formats lists every supported format.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// MarshalMap encodes m as indented JSON.
func MarshalMap(m *mapmodel.Map) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalMap decodes a map encoded by [MarshalMap].
func UnmarshalMap(data []byte) (*mapmodel.Map, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m mapmodel.Map
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return &m, nil
}

// DefaultColor is used for colors that cannot be parsed.
const DefaultColor = "#888888"

// Color converts a feed color to "#rrggbb". Decimal integers are read as
// 0xRRGGBB; values already in "#rrggbb" or "#rgb" form pass through
// lowercased. Anything else yields [DefaultColor].
func Color(c string) string {
	c = strings.TrimSpace(c)
	if strings.HasPrefix(c, "#") {
		hex := c[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return DefaultColor
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return DefaultColor
		}
		return strings.ToLower(c)
	}
	n, err := strconv.ParseInt(c, 10, 64)
	if err != nil || n < 0 {
		return DefaultColor
	}
	return fmt.Sprintf("#%06x", n&0xFFFFFF)
}
