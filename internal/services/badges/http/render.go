package http

import (
	"encoding/json"
	stdhttp "net/http"

	"tokeisrv/internal/core/badge"
	"tokeisrv/internal/modkit/httpkit"
	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/services/badges/domain"
)

// Content types
const (
	ContentTypeSVG  = "image/svg+xml"
	ContentTypeJSON = "application/json"
)

// StatsBody is the JSON representation of a badge
type StatsBody struct {
	domain.Summary
	Languages []domain.LanguageStats `json:"languages"`
}

// render produces the body for a resolved record
func render(rec domain.StatsRecord, opts domain.Options) ([]byte, string, error) {
	sum, langs := rec.Select(opts.Types)

	if opts.Format == domain.FormatJSON {
		if langs == nil {
			langs = []domain.LanguageStats{}
		}
		b, err := json.Marshal(StatsBody{Summary: sum, Languages: langs})
		if err != nil {
			return nil, "", perr.Wrap(err, perr.ErrorCodeUnknown, "encode stats")
		}
		return b, ContentTypeJSON, nil
	}

	b, err := badge.Render(badgeFor(sum, langs, opts))
	if err != nil {
		return nil, "", perr.Wrap(err, perr.ErrorCodeUnknown, "render badge")
	}
	return b, ContentTypeSVG, nil
}

// badgeFor picks label and message for the options
// with show_language the label is only what the client asked for
func badgeFor(sum domain.Summary, langs []domain.LanguageStats, opts domain.Options) badge.Badge {
	b := badge.Badge{
		Label: opts.Label,
		Color: opts.Color,
		Logo:  opts.Logo,
		Style: badge.ParseStyle(opts.Style),
	}
	if opts.ShowLanguage {
		b.Message = rankedLanguage(langs, opts.LanguageRank)
		return b
	}
	if b.Label == "" {
		b.Label = opts.Category.Label()
	}
	b.Message = badge.FormatAmount(sum.Amount(opts.Category))
	return b
}

// rankedLanguage is the 1-based rank by code lines
func rankedLanguage(langs []domain.LanguageStats, rank int) string {
	switch {
	case len(langs) == 0:
		return "No Languages"
	case rank < 1 || rank > len(langs):
		return "N/A"
	default:
		return langs[rank-1].Name
	}
}

// failure renders err as an error badge, or an envelope for JSON clients
func failure(err error, format domain.Format, opts domain.Options) httpkit.Response {
	if format == domain.FormatJSON {
		return httpkit.Error(err).WithHeader("Cache-Control", "no-cache")
	}

	code := perr.CodeOf(err)
	b := badge.Failure("tokei", failureMessage(code), badge.ParseStyle(opts.Style))
	if code == perr.ErrorCodeForbidden {
		b = badge.Forbidden()
	}
	body, rerr := badge.Render(b)
	if rerr != nil {
		return httpkit.Error(err)
	}
	return httpkit.Bytes(perr.HTTPStatusCode(code), ContentTypeSVG, body).
		WithHeader("Cache-Control", "no-cache")
}

func failureMessage(code perr.ErrorCode) string {
	switch code {
	case perr.ErrorCodeValidation:
		return "invalid request"
	case perr.ErrorCodeNotFound:
		return "not found"
	case perr.ErrorCodeUpstream:
		return "fetch failed"
	case perr.ErrorCodeUnavailable:
		return "unavailable"
	default:
		return stdhttp.StatusText(stdhttp.StatusInternalServerError)
	}
}
