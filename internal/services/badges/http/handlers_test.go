package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	phttp "tokeisrv/internal/platform/net/http"
	"tokeisrv/internal/platform/net/middleware"
	"tokeisrv/internal/services/badges/access"
	"tokeisrv/internal/services/badges/cache"
	"tokeisrv/internal/services/badges/coordinator"
	"tokeisrv/internal/services/badges/domain"
	"tokeisrv/internal/services/badges/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	home    = "https://github.com/XAMPPRocky/tokei"
	commitA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type fixture struct {
	h         stdhttp.Handler
	checkouts atomic.Int32
	seen      atomic.Value
	fail      atomic.Value
}

func newFixture(t *testing.T, users []string) *fixture {
	t.Helper()
	f := &fixture{}
	fetch := domain.FetcherFunc{
		HeadFn: func(context.Context, domain.Coordinate) (string, error) { return commitA, nil },
		CheckoutFn: func(_ context.Context, c domain.Coordinate) (domain.Checkout, error) {
			f.checkouts.Add(1)
			f.seen.Store(c)
			if err, ok := f.fail.Load().(error); ok && err != nil {
				return domain.Checkout{}, err
			}
			return domain.Checkout{Path: "/w", CommitID: commitA, Cleanup: func() {}}, nil
		},
	}
	scan := domain.ScannerFunc(func(context.Context, string) (domain.Report, error) {
		return domain.Report{
			Summary: domain.Summary{Lines: 2380, Code: 1800, Comments: 300, Blanks: 250, Files: 12},
			Languages: []domain.LanguageStats{
				{Name: "Markdown", Summary: domain.Summary{Lines: 380, Code: 200, Comments: 0, Blanks: 150, Files: 2}},
				{Name: "Go", Summary: domain.Summary{Lines: 2000, Code: 1600, Comments: 300, Blanks: 100, Files: 10}},
			},
		}, nil
	})
	c, err := cache.New(10, time.Hour)
	require.NoError(t, err)
	svc := service.New(access.NewGate(users, nil), c, coordinator.New(c, fetch, scan), true)

	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), svc, home)
	f.h = mux
	return f
}

func (f *fixture) do(method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func TestBadge_SVGMissThenHit(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do("GET", "/b1/github/alice/tool", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeSVG, rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, service.StatusMiss, rec.Header().Get(middleware.CacheStatusHeader))
	assert.Regexp(t, `^"[0-9a-f]{64}"$`, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), ">total lines</text>")
	assert.Contains(t, rec.Body.String(), ">2.4K</text>")

	coord := f.seen.Load().(domain.Coordinate)
	assert.Equal(t, "github.com", coord.Host)
	assert.Equal(t, "https://github.com/alice/tool", coord.RemoteURL())

	rec = f.do("GET", "/b1/github/alice/tool?category=code", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, service.StatusHit, rec.Header().Get(middleware.CacheStatusHeader))
	assert.Contains(t, rec.Body.String(), ">lines of code</text>")
	assert.Contains(t, rec.Body.String(), ">1.8K</text>")
	assert.Equal(t, int32(1), f.checkouts.Load(), "presentation changes share one scan")
}

func TestBadge_ConditionalGet(t *testing.T) {
	f := newFixture(t, nil)

	first := f.do("GET", "/b1/github.com/alice/tool", nil)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec := f.do("GET", "/b1/github.com/alice/tool", map[string]string{"If-None-Match": `"nope", W/` + etag})
	assert.Equal(t, stdhttp.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	rec = f.do("GET", "/b1/github.com/alice/tool?label=loc", map[string]string{"If-None-Match": etag})
	assert.Equal(t, stdhttp.StatusOK, rec.Code, "a different rendering has a different etag")

	rec = f.do("GET", "/b1/github.com/alice/tool", map[string]string{"If-None-Match": "*"})
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestBadge_JSON(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do("GET", "/b1/github/alice/tool?type=go", map[string]string{"Accept": "text/html, application/json;q=0.9"})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeJSON, rec.Header().Get("Content-Type"))

	var body StatsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2000, body.Lines)
	assert.Equal(t, 1600, body.Code)
	require.Len(t, body.Languages, 1)
	assert.Equal(t, "Go", body.Languages[0].Name)
}

func TestBadge_ShowLanguage(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do("GET", "/b1/github/alice/tool?show_language=true", nil)
	assert.Contains(t, rec.Body.String(), ">Go</text>")

	rec = f.do("GET", "/b1/github/alice/tool?show_language=true&language_rank=2&label=second", nil)
	assert.Contains(t, rec.Body.String(), ">Markdown</text>")
	assert.Contains(t, rec.Body.String(), ">second</text>")

	rec = f.do("GET", "/b1/github/alice/tool?show_language=true&language_rank=9", nil)
	assert.Contains(t, rec.Body.String(), ">N/A</text>")

	rec = f.do("GET", "/b1/github/alice/tool?show_language=true&language_rank=0", nil)
	assert.Contains(t, rec.Body.String(), ">N/A</text>")

	rec = f.do("GET", "/b1/github/alice/tool?show_language=true&type=rust", nil)
	assert.Contains(t, rec.Body.String(), ">No Languages</text>")
}

func TestBadge_Forbidden(t *testing.T) {
	f := newFixture(t, []string{"alice"})

	rec := f.do("GET", "/b1/github/bob/tool", nil)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	assert.Equal(t, ContentTypeSVG, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), ">forbidden</text>")
	assert.Contains(t, rec.Body.String(), `fill="#e05d44"`)
	assert.Zero(t, f.checkouts.Load())

	rec = f.do("GET", "/b1/github/bob/tool", map[string]string{"Accept": "application/json"})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	var env struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 3, env.Code)
	assert.Contains(t, env.Error, "user-not-whitelisted")
}

func TestBadge_ForbiddenBeforeQueryValidation(t *testing.T) {
	f := newFixture(t, []string{"alice"})

	for _, q := range []string{"?category=bytes", "?logo=notaurl", "?label=" + strings.Repeat("x", 200)} {
		rec := f.do("GET", "/b1/github/bob/tool"+q, nil)
		assert.Equal(t, stdhttp.StatusForbidden, rec.Code, q)
		assert.Contains(t, rec.Body.String(), ">forbidden</text>", q)
	}

	rec := f.do("GET", "/b1/github/alice/tool?category=bytes", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code, "allowed owners still get validation errors")
	assert.Zero(t, f.checkouts.Load())
}

func TestBadge_ValidationErrors(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do("GET", "/b1/github/alice/tool?category=bytes", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ">invalid request</text>")

	rec = f.do("GET", "/b1/github/alice%2Fevil/tool", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Zero(t, f.checkouts.Load())
}

func TestBadge_UpstreamFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.fail.Store(context.DeadlineExceeded)

	rec := f.do("GET", "/b1/github/alice/tool", map[string]string{"Accept": "application/json"})
	assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestBadge_HeadHasNoBody(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do("HEAD", "/b1/github/alice/tool", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.Empty(t, rec.Body.String())
}

func TestBadge_ClientRevalidate(t *testing.T) {
	f := newFixture(t, nil)

	f.do("GET", "/b1/github/alice/tool", nil)
	rec := f.do("GET", "/b1/github/alice/tool", map[string]string{"Cache-Control": "no-cache"})
	assert.Equal(t, service.StatusRevalidated, rec.Header().Get(middleware.CacheStatusHeader))
	assert.Equal(t, int32(1), f.checkouts.Load(), "same commit skips the checkout")
}

func TestIndex_Redirects(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do("GET", "/", nil)
	assert.Equal(t, stdhttp.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, home, rec.Header().Get("Location"))
}

func TestParseRank(t *testing.T) {
	assert.Equal(t, 1, parseRank(""))
	assert.Equal(t, 3, parseRank("3"))
	assert.Equal(t, 0, parseRank("first"))
	assert.Equal(t, 0, parseRank("-2"))
}

func TestNegotiate(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, domain.FormatSVG, negotiate(r))
	r.Header.Set("Accept", "image/svg+xml")
	assert.Equal(t, domain.FormatSVG, negotiate(r))
	r.Header.Set("Accept", "Application/JSON")
	assert.Equal(t, domain.FormatJSON, negotiate(r))
}
