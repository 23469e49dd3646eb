// Package linecount counts code, comment and blank lines per language in a directory tree
package linecount

import (
	"context"
	"regexp"
	"sort"
	"strings"

	perr "tokeisrv/internal/platform/errors"

	"github.com/hhatto/gocloc"
)

// Totals are line and file counts
type Totals struct {
	Lines    int
	Code     int
	Comments int
	Blanks   int
	Files    int
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		Lines:    t.Lines + o.Lines,
		Code:     t.Code + o.Code,
		Comments: t.Comments + o.Comments,
		Blanks:   t.Blanks + o.Blanks,
		Files:    t.Files + o.Files,
	}
}

// Language is the count for one language
type Language struct {
	Name string
	Totals
}

// Result is a tree wide count, Languages are sorted by name
type Result struct {
	Totals
	Languages []Language
}

// vcs metadata never counts
var vcsDirs = regexp.MustCompile(`(^|/)\.(git|hg|svn|bzr)(/|$)`)

// Counter is safe for concurrent use, every Count builds its own language table
type Counter struct {
	excludeExts []string
	skipDup     bool
	// analyze walks dir, nil means gocloc
	analyze func(dir string) (*gocloc.Result, error)
}

// Option configures a Counter
type Option func(*Counter)

// WithExcludeExts drops files with the given extensions, without the dot
func WithExcludeExts(exts ...string) Option {
	return func(c *Counter) {
		for _, e := range exts {
			if e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), "."); e != "" {
				c.excludeExts = append(c.excludeExts, e)
			}
		}
	}
}

// WithSkipDuplicated counts identical files once
func WithSkipDuplicated() Option {
	return func(c *Counter) { c.skipDup = true }
}

// New builds a Counter
func New(opts ...Option) *Counter {
	c := &Counter{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Count walks dir and tallies every recognized source file
// the walk cannot be interrupted, so a cancelled ctx fails the count but Count still
// returns only once the walk has left dir and the caller may remove it
func (c *Counter) Count(ctx context.Context, dir string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	type outcome struct {
		res *gocloc.Result
		err error
	}
	done := make(chan outcome, 1)
	analyze := c.analyze
	if analyze == nil {
		analyze = func(dir string) (*gocloc.Result, error) { return c.processor().Analyze([]string{dir}) }
	}
	go func() {
		res, err := analyze(dir)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		<-done
		return Result{}, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return Result{}, perr.Wrapf(out.err, perr.ErrorCodeUpstream, "count lines in %s", dir)
		}
		return summarize(out.res), nil
	}
}

func (c *Counter) processor() *gocloc.Processor {
	opts := gocloc.NewClocOptions()
	opts.SkipDuplicated = c.skipDup
	opts.ReNotMatchDir = vcsDirs
	for _, e := range c.excludeExts {
		opts.ExcludeExts[e] = struct{}{}
	}
	return gocloc.NewProcessor(gocloc.NewDefinedLanguages(), opts)
}

func summarize(res *gocloc.Result) Result {
	var out Result
	if res == nil {
		return out
	}
	for _, l := range res.Languages {
		if l == nil || len(l.Files) == 0 {
			continue
		}
		t := Totals{
			Code:     int(l.Code),
			Comments: int(l.Comments),
			Blanks:   int(l.Blanks),
			Files:    len(l.Files),
		}
		t.Lines = t.Code + t.Comments + t.Blanks
		out.Languages = append(out.Languages, Language{Name: l.Name, Totals: t})
		out.Totals = out.Totals.add(t)
	}
	sort.Slice(out.Languages, func(i, j int) bool { return out.Languages[i].Name < out.Languages[j].Name })
	return out
}
