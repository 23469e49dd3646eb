package module

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tokeisrv/internal/core/linecount"
	modkit "tokeisrv/internal/modkit"
	perr "tokeisrv/internal/platform/errors"
	phttp "tokeisrv/internal/platform/net/http"
	"tokeisrv/internal/services/badges/domain"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commit = "abcdefabcdefabcdefabcdefabcdefabcdefabcd"

func collaborators(t *testing.T) Collaborators {
	t.Helper()
	return Collaborators{
		Fetcher: domain.FetcherFunc{
			HeadFn: func(context.Context, domain.Coordinate) (string, error) { return commit, nil },
			CheckoutFn: func(context.Context, domain.Coordinate) (domain.Checkout, error) {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
				return domain.Checkout{Path: dir, CommitID: commit, Cleanup: func() {}}, nil
			},
		},
	}
}

func TestNew_RejectsBadCacheConfig(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.MaxEntries = 0
	_, err := New(modkit.Deps{}, cfg)
	assert.Equal(t, perr.ErrorCodeValidation, perr.CodeOf(err))
}

func TestModule_ServesBadgesWithDefaultScanner(t *testing.T) {
	m, err := New(modkit.Deps{}, domain.DefaultConfig(), modkit.WithPorts(collaborators(t)))
	require.NoError(t, err)
	assert.Equal(t, Name, m.Name())

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b1/github/alice/tool?category=code", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), ">lines of code</text>")
	assert.Contains(t, rec.Body.String(), ">2</text>")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, domain.DefaultHomeURL, rec.Header().Get("Location"))

	ports, ok := m.Ports().(Ports)
	require.True(t, ok)
	st := ports.Stats.Stats()
	assert.Equal(t, 1, st.Cache.Size)
	assert.Equal(t, uint64(1), st.Pipeline.Runs)
	assert.NoError(t, ports.Stats.Ping(context.Background()))
}

func TestModule_RegisterHookRuns(t *testing.T) {
	called := false
	m, err := New(modkit.Deps{}, domain.DefaultConfig(),
		modkit.WithPorts(collaborators(t)),
		modkit.WithRegister(func(phttp.Router) { called = true }),
	)
	require.NoError(t, err)
	m.MountRoutes(phttp.AdaptChi(chi.NewRouter()))
	assert.True(t, called)
}

func TestScanner_ConvertsCounts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\n// doc\nvar X = 1\n"), 0o644))

	rep, err := NewScanner(linecount.New()).Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, rep.Languages, 1)
	assert.Equal(t, "Go", rep.Languages[0].Name)
	assert.Equal(t, domain.Summary{Lines: 4, Code: 2, Comments: 1, Blanks: 1, Files: 1}, rep.Summary)
	assert.Equal(t, rep.Summary, rep.Languages[0].Summary)
}

func TestScanner_CounterOptionsFromConfig(t *testing.T) {
	dir := t.TempDir()
	body := []byte("package a\n\nvar X = 1\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x", "a.go"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# readme\n"), 0o644))

	assert.Empty(t, CounterOptions(domain.DefaultConfig()))

	cfg := domain.DefaultConfig()
	cfg.SkipDuplicated = true
	cfg.ExcludeExts = []string{"md"}
	rep, err := NewScanner(linecount.New(CounterOptions(cfg)...)).Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, rep.Languages, 1)
	assert.Equal(t, "Go", rep.Languages[0].Name)
	assert.Equal(t, 2, rep.Summary.Code)
}
