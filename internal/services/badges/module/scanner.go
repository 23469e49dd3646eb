package module

import (
	"context"

	"tokeisrv/internal/core/linecount"
	"tokeisrv/internal/services/badges/domain"
)

// Scanner adapts a linecount.Counter to domain.Scanner
type Scanner struct {
	counter *linecount.Counter
}

var _ domain.Scanner = Scanner{}

// CounterOptions maps the scan settings of cfg onto linecount options
func CounterOptions(cfg domain.Config) []linecount.Option {
	var opts []linecount.Option
	if cfg.SkipDuplicated {
		opts = append(opts, linecount.WithSkipDuplicated())
	}
	if len(cfg.ExcludeExts) > 0 {
		opts = append(opts, linecount.WithExcludeExts(cfg.ExcludeExts...))
	}
	return opts
}

// NewScanner wraps c
func NewScanner(c *linecount.Counter) Scanner { return Scanner{counter: c} }

// Scan counts dir and converts the result into a report
func (s Scanner) Scan(ctx context.Context, dir string) (domain.Report, error) {
	res, err := s.counter.Count(ctx, dir)
	if err != nil {
		return domain.Report{}, err
	}
	rep := domain.Report{
		Summary:   summary(res.Totals),
		Languages: make([]domain.LanguageStats, 0, len(res.Languages)),
	}
	for _, l := range res.Languages {
		rep.Languages = append(rep.Languages, domain.LanguageStats{Name: l.Name, Summary: summary(l.Totals)})
	}
	return rep, nil
}

func summary(t linecount.Totals) domain.Summary {
	return domain.Summary{
		Lines:    t.Lines,
		Code:     t.Code,
		Comments: t.Comments,
		Blanks:   t.Blanks,
		Files:    t.Files,
	}
}
