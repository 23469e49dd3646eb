// Package service orchestrates access checks, cache lookups and coalesced refreshes
package service

import (
	"context"

	"tokeisrv/internal/platform/logger"
	"tokeisrv/internal/services/badges/access"
	"tokeisrv/internal/services/badges/cache"
	"tokeisrv/internal/services/badges/coordinator"
	"tokeisrv/internal/services/badges/domain"
	"tokeisrv/internal/services/badges/fingerprint"
)

// CacheStatus values reported in the X-Cache-Status header
const (
	StatusHit         = "hit"
	StatusMiss        = "miss"
	StatusRefreshed   = "refreshed"
	StatusRevalidated = "revalidated"
)

// Request is one badge lookup
type Request struct {
	Coordinate  domain.Coordinate
	Options     domain.Options
	IfNoneMatch string
	// Revalidate asks for a commit check even when the record is fresh
	Revalidate bool
}

// Result carries the record plus what the HTTP layer needs for conditional responses
type Result struct {
	Coordinate  domain.Coordinate
	Key         domain.CacheKey
	Record      domain.StatsRecord
	ETag        string
	NotModified bool
	CacheStatus string
}

// Stats joins cache and pipeline counters
type Stats struct {
	Cache    cache.Stats       `json:"cache"`
	Pipeline coordinator.Stats `json:"pipeline"`
}

// Service is safe for concurrent use
type Service struct {
	gate       access.Gate
	cache      *cache.Cache
	coord      *coordinator.Coordinator
	revalidate bool
}

// New wires the service, allowRevalidate gates Request.Revalidate
func New(gate access.Gate, c *cache.Cache, coord *coordinator.Coordinator, allowRevalidate bool) *Service {
	return &Service{gate: gate, cache: c, coord: coord, revalidate: allowRevalidate}
}

// Admit normalizes c and applies the access gate
// callers run it before looking at anything else in the request so a denial always has one shape
func (s *Service) Admit(ctx context.Context, c domain.Coordinate) (domain.Coordinate, error) {
	coord := fingerprint.Normalize(c)
	if d := s.gate.Check(coord); !d.Allowed {
		logger.C(ctx).Warn().
			Str("repo", coord.String()).
			Str("reason", string(d.Reason)).
			Msg("access denied")
		return coord, d.Err()
	}
	return coord, nil
}

// Resolve runs the request through the gate, the cache and if needed the coordinator
// a denied coordinate returns a Forbidden error before any cache or network work
func (s *Service) Resolve(ctx context.Context, req Request) (Result, error) {
	coord, err := s.Admit(ctx, req.Coordinate)
	if err != nil {
		return Result{Coordinate: coord}, err
	}

	key := fingerprint.DeriveKey(coord)
	ctx = logger.WithRepo(ctx, string(key))
	out := Result{Coordinate: coord, Key: key}

	force := req.Revalidate && s.revalidate
	lk := s.cache.Get(key)
	if lk.State == cache.Fresh && !force {
		logger.C(ctx).Debug().Str("commit", lk.Record.CommitID).Msg("cache hit")
		out.Record, out.CacheStatus = lk.Record, StatusHit
	} else {
		res, err := s.coord.Resolve(ctx, key, coord, force)
		if err != nil {
			return out, err
		}
		out.Record = res.Record
		out.CacheStatus = cacheStatus(lk.State, res.Outcome)
	}

	out.ETag = fingerprint.ETag(out.Record, req.Options)
	out.NotModified = fingerprint.Matches(out.ETag, req.IfNoneMatch)
	return out, nil
}

// Stats snapshots the counters
func (s *Service) Stats() Stats {
	return Stats{Cache: s.cache.Stats(), Pipeline: s.coord.Stats()}
}

// Ping reports readiness, the service holds no external connections
func (s *Service) Ping(context.Context) error { return nil }

func cacheStatus(seen cache.State, o coordinator.Outcome) string {
	switch o {
	case coordinator.OutcomeRevalidated:
		return StatusRevalidated
	case coordinator.OutcomeCached:
		return StatusHit
	}
	if seen == cache.Absent {
		return StatusMiss
	}
	return StatusRefreshed
}
