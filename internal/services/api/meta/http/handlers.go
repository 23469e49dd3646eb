// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"tokeisrv/internal/core/version"
	"tokeisrv/internal/modkit/httpkit"
	"tokeisrv/internal/modkit/module"
	"tokeisrv/internal/services/badges/service"

	"github.com/jonboulle/clockwork"
)

// readyTimeout bounds the dependency checks of /ready
const readyTimeout = 2 * time.Second

// BadgeSource is the badge service port the meta endpoints read
type BadgeSource interface {
	Stats() service.Stats
	Ping(stdctx.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Clock       clockwork.Clock
	// Badges may be nil, /ready then reports it as skipped
	Badges BadgeSource
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/cache", h.cache)
}

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"tokeisrv"`
	Started string `json:"started"  example:"2025-09-03T13:00:00Z"`
	Now     string `json:"now"      example:"2025-09-03T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"badges"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"context deadline exceeded"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2025-09-03T13:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string   `json:"name"    example:"tokeisrv"`
	Started string   `json:"started" example:"2025-09-03T13:00:00Z"`
	Uptime  int64    `json:"uptime"  example:"300"`
	Modules []string `json:"modules" example:"badges,meta"`
}

// CacheResponse reports cache occupancy and pipeline counters
type CacheResponse struct {
	Size                  int    `json:"size"                   example:"12"`
	Capacity              int    `json:"capacity"               example:"1000"`
	TTLSeconds            int64  `json:"ttl_seconds"            example:"86400"`
	Hits                  uint64 `json:"hits"                   example:"340"`
	Misses                uint64 `json:"misses"                 example:"12"`
	Stale                 uint64 `json:"stale"                  example:"3"`
	Evictions             uint64 `json:"evictions"              example:"0"`
	InFlight              int64  `json:"in_flight"              example:"1"`
	PipelineRuns          uint64 `json:"pipeline_runs"          example:"15"`
	RevalidationShortcuts uint64 `json:"revalidation_shortcuts" example:"3"`
	PipelineFailures      uint64 `json:"pipeline_failures"      example:"0"`
	AbandonedWaits        uint64 `json:"abandoned_waits"        example:"0"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.deps.Clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	check := ReadyCheck{Name: "badges", Status: "skipped"}
	if h.deps.Badges != nil {
		check.Status = "ok"
		if err := h.deps.Badges.Ping(ctx); err != nil {
			check.Status, check.Error = "fail", err.Error()
		}
	}

	overall := "ok"
	switch check.Status {
	case "fail":
		overall = "fail"
	case "skipped":
		overall = "degraded"
	}

	return ReadyResponse{
		Status: overall,
		Checks: []ReadyCheck{check},
		Now:    h.deps.Clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 type ServiceResponse ok
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	uptime := h.deps.Clock.Since(h.deps.StartedAt)
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(uptime / time.Second),
		Modules: module.Names(),
	}, nil
}

// swagger:route GET /meta/cache Meta metaCache
// @Summary Badge cache and pipeline counters
// @Tags Meta
// @Produce json
// @Success 200 type CacheResponse ok
// @Router /meta/cache [get]
func (h *handlers) cache(_ *http.Request) (any, error) {
	if h.deps.Badges == nil {
		return CacheResponse{}, nil
	}
	st := h.deps.Badges.Stats()
	return CacheResponse{
		Size:                  st.Cache.Size,
		Capacity:              st.Cache.Capacity,
		TTLSeconds:            int64(st.Cache.TTL / time.Second),
		Hits:                  st.Cache.Hits,
		Misses:                st.Cache.Misses,
		Stale:                 st.Cache.Stale,
		Evictions:             st.Cache.Evictions,
		InFlight:              st.Pipeline.InFlight,
		PipelineRuns:          st.Pipeline.Runs,
		RevalidationShortcuts: st.Pipeline.Shortcuts,
		PipelineFailures:      st.Pipeline.Failures,
		AbandonedWaits:        st.Pipeline.Abandoned,
	}, nil
}
