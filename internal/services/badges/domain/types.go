// Package domain defines the types and ports for the badge service
package domain

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Coordinate identifies a remote repository
// an empty Branch means the remote's default branch
type Coordinate struct {
	Host   string
	Owner  string
	Name   string
	Branch string
}

// RemoteURL is the https clone url for the coordinate
func (c Coordinate) RemoteURL() string {
	return "https://" + c.Host + "/" + c.Owner + "/" + c.Name
}

// String renders host/owner/name[@branch] for logs
func (c Coordinate) String() string {
	s := c.Host + "/" + c.Owner + "/" + c.Name
	if c.Branch != "" {
		s += "@" + c.Branch
	}
	return s
}

// CacheKey is derived from a Coordinate only, never from rendering options
type CacheKey string

// Category selects which count a badge shows
type Category string

// Categories
const (
	CategoryLines    Category = "lines"
	CategoryCode     Category = "code"
	CategoryBlanks   Category = "blanks"
	CategoryComments Category = "comments"
	CategoryFiles    Category = "files"
)

// Label is the default badge label for the category
func (c Category) Label() string {
	switch c {
	case CategoryCode:
		return "lines of code"
	case CategoryBlanks:
		return "blank lines"
	case CategoryComments:
		return "comments"
	case CategoryFiles:
		return "files"
	default:
		return "total lines"
	}
}

// Format is the response representation
type Format string

// Formats
const (
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
)

// Options are the request parameters that change rendering but not the scanned stats
type Options struct {
	Category     Category
	Label        string
	Style        string
	Color        string
	Logo         string
	Types        []string
	ShowLanguage bool
	LanguageRank int
	Format       Format
}

// Summary holds aggregate counts for a tree or a language
type Summary struct {
	Lines    int `json:"lines"`
	Code     int `json:"code"`
	Comments int `json:"comments"`
	Blanks   int `json:"blanks"`
	Files    int `json:"files"`
}

// Add returns the element-wise sum
func (s Summary) Add(o Summary) Summary {
	return Summary{
		Lines:    s.Lines + o.Lines,
		Code:     s.Code + o.Code,
		Comments: s.Comments + o.Comments,
		Blanks:   s.Blanks + o.Blanks,
		Files:    s.Files + o.Files,
	}
}

// Amount picks the count for a category
func (s Summary) Amount(c Category) int {
	switch c {
	case CategoryCode:
		return s.Code
	case CategoryBlanks:
		return s.Blanks
	case CategoryComments:
		return s.Comments
	case CategoryFiles:
		return s.Files
	default:
		return s.Lines
	}
}

// LanguageStats are the counts for one language
type LanguageStats struct {
	Name string `json:"name"`
	Summary
}

// Report is what a scan produces
type Report struct {
	Summary   Summary
	Languages []LanguageStats
}

// StatsRecord is the cached value for one CacheKey
// Languages is shared between readers and must not be mutated
type StatsRecord struct {
	InsertedAt      time.Time
	CommitID        string
	FingerprintHash string
	Summary         Summary
	Languages       []LanguageStats
}

// Select narrows the record to the given language names, compared with unicode case folding
// with no names the full summary is returned; languages come back ordered by code lines
func (r StatsRecord) Select(names []string) (Summary, []LanguageStats) {
	if len(names) == 0 {
		return r.Summary, RankByCode(r.Languages)
	}
	fold := cases.Fold()
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[fold.String(strings.TrimSpace(n))] = struct{}{}
	}
	var (
		sum  Summary
		kept []LanguageStats
	)
	for _, l := range r.Languages {
		if _, ok := want[fold.String(l.Name)]; ok {
			sum = sum.Add(l.Summary)
			kept = append(kept, l)
		}
	}
	return sum, RankByCode(kept)
}

// RankByCode returns a copy ordered by code lines descending then name
func RankByCode(ls []LanguageStats) []LanguageStats {
	out := slices.Clone(ls)
	slices.SortStableFunc(out, func(a, b LanguageStats) int {
		if a.Code != b.Code {
			return b.Code - a.Code
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
