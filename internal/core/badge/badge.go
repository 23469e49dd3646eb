// Package badge renders shields style SVG badges
package badge

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Style selects the badge shape
type Style string

// Styles
const (
	Flat        Style = "flat"
	FlatSquare  Style = "flat-square"
	Plastic     Style = "plastic"
	ForTheBadge Style = "for-the-badge"
	Social      Style = "social"
)

// DefaultStyle applies when no style is requested
const DefaultStyle = Plastic

// ParseStyle maps a query value onto a Style, "" is the default and unknown names are flat
func ParseStyle(s string) Style {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return DefaultStyle
	case Flat, FlatSquare, Plastic, ForTheBadge, Social:
		return st
	default:
		return Flat
	}
}

// Badge is one renderable badge
type Badge struct {
	Label      string
	Message    string
	Color      string
	LabelColor string
	Logo       string
	Style      Style
}

// Forbidden is the badge served to callers outside the whitelists
func Forbidden() Badge {
	return Badge{Message: "forbidden", Color: ErrorColor, Style: Plastic}
}

// Failure is a red badge carrying a short error message
func Failure(label, msg string, style Style) Badge {
	return Badge{Label: label, Message: msg, Color: ErrorColor, Style: style}
}

// FormatAmount shortens large counts to one decimal with a B, M or K suffix
func FormatAmount(n int) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	default:
		return strconv.Itoa(n)
	}
}

// Render writes b as an SVG document
func Render(b Badge) ([]byte, error) {
	v := layout(b)
	var buf bytes.Buffer
	if err := svgTmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render badge: %w", err)
	}
	return buf.Bytes(), nil
}

// geometry per style
type shape struct {
	height   float64
	radius   float64
	fontSize float64
	padding  float64
	gradient string
	upper    bool
	spacing  float64
}

var shapes = map[Style]shape{
	Flat:        {height: 20, radius: 3, fontSize: 11, padding: 5, gradient: ".1"},
	FlatSquare:  {height: 20, radius: 0, fontSize: 11, padding: 5},
	Plastic:     {height: 18, radius: 4, fontSize: 11, padding: 5, gradient: ".3"},
	ForTheBadge: {height: 28, radius: 0, fontSize: 10, padding: 9, upper: true, spacing: 1.25},
	Social:      {height: 20, radius: 3, fontSize: 11, padding: 6, gradient: ".1"},
}

const logoSize = 14

type view struct {
	Title        string
	Label        string
	Message      string
	Width        string
	Height       string
	Radius       string
	LabelWidth   string
	MessageWidth string
	LabelX       string
	MessageX     string
	TextY        string
	FontSize     string
	Spacing      string
	Weight       string
	Gradient     string
	LabelColor   string
	Color        string
	LabelText    string
	MessageText  string
	Stroke       string
	Logo         string
	LogoX        string
	LogoY        string
}

func layout(b Badge) view {
	style := b.Style
	if style == "" {
		style = DefaultStyle
	}
	sh, ok := shapes[style]
	if !ok {
		style, sh = Flat, shapes[Flat]
	}

	label, msg := b.Label, b.Message
	if sh.upper {
		label, msg = strings.ToUpper(label), strings.ToUpper(msg)
	}

	color := NormalizeColor(b.Color, DefaultColor)
	labelColor := NormalizeColor(b.LabelColor, DefaultLabelColor)
	if style == Social {
		labelColor, color = "#fcfcfc", "#fafafa"
	}

	logo := logoURL(b.Logo)
	var logoW float64
	if logo != "" {
		logoW = logoSize + 3
		if label == "" {
			logoW = logoSize
		}
	}

	textW := func(s string) float64 {
		if s == "" {
			return 0
		}
		w := measure(s) * sh.fontSize / 11
		return w + sh.spacing*float64(len([]rune(s)))
	}

	labelW := 0.0
	if label != "" || logo != "" {
		labelW = textW(label) + logoW + 2*sh.padding
	}
	msgW := textW(msg) + 2*sh.padding
	width := labelW + msgW

	weight := "normal"
	if style == ForTheBadge {
		weight = "bold"
	}
	stroke := "none"
	if style == Social {
		stroke = "#d5d5d5"
	}

	title := msg
	if label != "" {
		title = label + ": " + msg
	}

	return view{
		Title:        title,
		Label:        label,
		Message:      msg,
		Width:        num(width),
		Height:       num(sh.height),
		Radius:       num(sh.radius),
		LabelWidth:   num(labelW),
		MessageWidth: num(msgW),
		LabelX:       num(logoW + sh.padding + (labelW-logoW-2*sh.padding)/2),
		MessageX:     num(labelW + msgW/2),
		TextY:        num(sh.height/2 + sh.fontSize/3),
		FontSize:     num(sh.fontSize),
		Spacing:      num(sh.spacing),
		Weight:       weight,
		Gradient:     sh.gradient,
		LabelColor:   labelColor,
		Color:        color,
		LabelText:    textColor(labelColor),
		MessageText:  textColor(color),
		Stroke:       stroke,
		Logo:         logo,
		LogoX:        num(sh.padding),
		LogoY:        num((sh.height - logoSize) / 2),
	}
}

// logoURL keeps only absolute http(s) urls
func logoURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// num prints f rounded to a tenth
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', -1, 64)
}

var svgTmpl = template.Must(template.New("badge").Parse(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="{{.Width}}" height="{{.Height}}" role="img" aria-label="{{.Title}}">` +
	`<title>{{.Title}}</title>` +
	`{{if .Gradient}}<linearGradient id="s" x2="0" y2="100%"><stop offset="0" stop-color="#bbb" stop-opacity="{{.Gradient}}"/><stop offset="1" stop-opacity="{{.Gradient}}"/></linearGradient>{{end}}` +
	`<clipPath id="r"><rect width="{{.Width}}" height="{{.Height}}" rx="{{.Radius}}" fill="#fff"/></clipPath>` +
	`<g clip-path="url(#r)">` +
	`<rect width="{{.LabelWidth}}" height="{{.Height}}" fill="{{.LabelColor}}" stroke="{{.Stroke}}"/>` +
	`<rect x="{{.LabelWidth}}" width="{{.MessageWidth}}" height="{{.Height}}" fill="{{.Color}}" stroke="{{.Stroke}}"/>` +
	`{{if .Gradient}}<rect width="{{.Width}}" height="{{.Height}}" fill="url(#s)"/>{{end}}` +
	`</g>` +
	`<g text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="{{.FontSize}}" letter-spacing="{{.Spacing}}" font-weight="{{.Weight}}">` +
	`{{if .Logo}}<image x="{{.LogoX}}" y="{{.LogoY}}" width="14" height="14" xlink:href="{{.Logo}}"/>{{end}}` +
	`{{if .Label}}<text x="{{.LabelX}}" y="{{.TextY}}" fill="{{.LabelText}}">{{.Label}}</text>{{end}}` +
	`<text x="{{.MessageX}}" y="{{.TextY}}" fill="{{.MessageText}}">{{.Message}}</text>` +
	`</g>` +
	`</svg>`))
