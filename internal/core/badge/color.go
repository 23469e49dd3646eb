package badge

import (
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Default colors
const (
	DefaultColor      = "#007ec6"
	DefaultLabelColor = "#555555"
	ErrorColor        = "#e05d44"
)

// named shields colors take precedence over css names of the same spelling
var palette = map[string]string{
	"brightgreen":   "#44cc11",
	"green":         "#97ca00",
	"yellowgreen":   "#a4a61d",
	"yellow":        "#dfb317",
	"orange":        "#fe7d37",
	"red":           "#e05d44",
	"blue":          "#007ec6",
	"grey":          "#555555",
	"gray":          "#555555",
	"lightgrey":     "#9f9f9f",
	"lightgray":     "#9f9f9f",
	"success":       "#44cc11",
	"important":     "#fe7d37",
	"critical":      "#e05d44",
	"informational": "#007ec6",
	"inactive":      "#9f9f9f",
}

// NormalizeColor turns a css color or badge palette name into #rrggbb, def when unparsable
// bare hex like "ff0000" is accepted too
func NormalizeColor(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	if hex, ok := palette[s]; ok {
		return hex
	}
	if isBareHex(s) {
		s = "#" + s
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return def
	}
	return c.HexString()
}

// textColor picks dark text on bright backgrounds
func textColor(bg string) string {
	c, err := csscolorparser.Parse(bg)
	if err != nil {
		return "#fff"
	}
	if 0.299*c.R+0.587*c.G+0.114*c.B > 0.69 {
		return "#333"
	}
	return "#fff"
}

func isBareHex(s string) bool {
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
