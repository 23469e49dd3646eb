// Package http provides the badge endpoint
package http

import (
	"context"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"tokeisrv/internal/modkit/httpkit"
	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/platform/logger"
	"tokeisrv/internal/platform/net/http/bind"
	"tokeisrv/internal/platform/net/middleware"
	"tokeisrv/internal/services/badges/domain"
	"tokeisrv/internal/services/badges/service"

	"github.com/go-chi/chi/v5"
)

// Resolver is the slice of the badge service the handlers need
type Resolver interface {
	Admit(ctx context.Context, c domain.Coordinate) (domain.Coordinate, error)
	Resolve(ctx context.Context, req service.Request) (service.Result, error)
}

// Register mounts the badge and index routes
func Register(r httpkit.Router, s Resolver, homeURL string) {
	h := &handlers{svc: s, home: homeURL}

	httpkit.GetHead(r, "/", h.index)
	httpkit.GetHead(r, "/b1/{host}/{owner}/{repo}", h.badge)
}

type handlers struct {
	svc  Resolver
	home string
}

// badgeQuery carries the optional query parameters
// show_language and language_rank are parsed leniently, a bad rank renders N/A
type badgeQuery struct {
	Branch       string `query:"branch" validate:"max=255"`
	Category     string `query:"category" validate:"omitempty,oneof=lines code blanks comments files"`
	Label        string `query:"label" validate:"max=128"`
	Style        string `query:"style" validate:"max=32"`
	Color        string `query:"color" validate:"max=64"`
	Logo         string `query:"logo" validate:"omitempty,url"`
	Type         string `query:"type"`
	ShowLanguage string `query:"show_language"`
	LanguageRank string `query:"language_rank"`
}

// swagger:route GET /b1/{host}/{owner}/{repo} Badges badge
// @Summary Code statistics badge for a repository
// @Tags Badges
// @Produce image/svg+xml
// @Produce json
// @Success 200 "badge"
// @Success 304 "not modified"
// @Failure 403 "forbidden badge"
// @Router /b1/{host}/{owner}/{repo} [get]
func (h *handlers) badge(r *stdhttp.Request) httpkit.Response {
	format := negotiate(r)
	opts := domain.Options{Format: format}

	coord, err := parsePath(r)
	if err != nil {
		return failure(err, format, opts)
	}
	// the gate sees the path before the query so denied owners never get a 400
	if _, err := h.svc.Admit(r.Context(), coord); err != nil {
		return failure(err, format, opts)
	}
	coord, opts, err = parseQuery(r, coord, format)
	if err != nil {
		return failure(err, format, opts)
	}

	res, err := h.svc.Resolve(r.Context(), service.Request{
		Coordinate:  coord,
		Options:     opts,
		IfNoneMatch: r.Header.Get("If-None-Match"),
		Revalidate:  wantsRevalidate(r),
	})
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeForbidden) {
			logger.C(r.Context()).Warn().Err(err).
				Str("repo", res.Coordinate.String()).
				Stringer("code", perr.CodeOf(err)).
				Bool("retryable", perr.Retryable(err)).
				Msg("badge failed")
		}
		return failure(err, format, opts)
	}

	if res.NotModified {
		return withCacheHeaders(httpkit.NotModified(), res)
	}

	body, contentType, err := render(res.Record, opts)
	if err != nil {
		return failure(err, format, opts)
	}
	return withCacheHeaders(httpkit.Bytes(stdhttp.StatusOK, contentType, body), res)
}

// swagger:route GET / Badges index
// @Summary Redirects to the project home page
// @Tags Badges
// @Success 308 "redirect"
// @Router / [get]
func (h *handlers) index(_ *stdhttp.Request) httpkit.Response {
	return httpkit.Redirect(stdhttp.StatusPermanentRedirect, h.home)
}

// parsePath reads the host, owner and repo segments
func parsePath(r *stdhttp.Request) (domain.Coordinate, error) {
	host, err := pathParam(r, "host")
	if err != nil {
		return domain.Coordinate{}, err
	}
	owner, err := pathParam(r, "owner")
	if err != nil {
		return domain.Coordinate{}, err
	}
	repo, err := pathParam(r, "repo")
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Host: host, Owner: owner, Name: repo}, nil
}

// parseQuery binds the query parameters onto the options and the branch onto coord
func parseQuery(r *stdhttp.Request, coord domain.Coordinate, format domain.Format) (domain.Coordinate, domain.Options, error) {
	opts := domain.Options{Format: format}

	q, err := bind.Query[badgeQuery](r)
	if err != nil {
		return coord, opts, err
	}

	opts.Category = domain.Category(q.Category)
	if opts.Category == "" {
		opts.Category = domain.CategoryLines
	}
	opts.Label = q.Label
	opts.Style = q.Style
	opts.Color = q.Color
	opts.Logo = q.Logo
	opts.Types = splitTypes(q.Type)
	opts.ShowLanguage, _ = strconv.ParseBool(q.ShowLanguage)
	opts.LanguageRank = parseRank(q.LanguageRank)

	coord.Branch = strings.TrimSpace(q.Branch)
	return coord, opts, nil
}

// pathParam decodes one segment, a decoded slash would change the coordinate shape
func pathParam(r *stdhttp.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", perr.WithField(perr.Validationf("%s is not valid percent encoding", name), name)
	}
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "/") || v == "." || v == ".." {
		return "", perr.WithField(perr.Validationf("%s is invalid", name), name)
	}
	return v, nil
}

// parseRank defaults to 1 when absent and to 0 when unparsable
func parseRank(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func splitTypes(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// negotiate picks JSON when the client accepts it, SVG otherwise
func negotiate(r *stdhttp.Request) domain.Format {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, _ := strings.Cut(part, ";")
		if strings.EqualFold(strings.TrimSpace(mt), "application/json") {
			return domain.FormatJSON
		}
	}
	return domain.FormatSVG
}

// wantsRevalidate reports a request Cache-Control of no-cache
func wantsRevalidate(r *stdhttp.Request) bool {
	for _, d := range strings.Split(r.Header.Get("Cache-Control"), ",") {
		if strings.EqualFold(strings.TrimSpace(d), "no-cache") {
			return true
		}
	}
	return false
}

func withCacheHeaders(resp httpkit.Response, res service.Result) httpkit.Response {
	return resp.
		WithHeader("ETag", res.ETag).
		WithHeader("Cache-Control", "no-cache").
		WithHeader(middleware.CacheStatusHeader, res.CacheStatus)
}
