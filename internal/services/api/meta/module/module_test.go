package module

import (
	"net/http"
	"net/http/httptest"
	"testing"

	modkit "tokeisrv/internal/modkit"
	phttp "tokeisrv/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMeta_MountsUnderPrefix(t *testing.T) {
	m := New(modkit.Deps{})
	assert.Equal(t, "meta", m.Name())
	assert.Nil(t, m.Ports())

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
