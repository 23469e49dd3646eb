// Package coordinator runs at most one fetch and scan pipeline per cache key
package coordinator

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/platform/logger"
	potel "tokeisrv/internal/platform/otel"
	"tokeisrv/internal/services/badges/cache"
	"tokeisrv/internal/services/badges/domain"
	"tokeisrv/internal/services/badges/fingerprint"
	"tokeisrv/internal/services/badges/guardrails"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Store is the slice of the repository cache the coordinator needs
type Store interface {
	Peek(key domain.CacheKey) cache.Lookup
	Put(key domain.CacheKey, rec domain.StatsRecord) (bool, error)
	Now() time.Time
}

// Outcome says how a record was produced
type Outcome int

// Outcomes
const (
	// OutcomeCached means another run refreshed the key while this one was queued
	OutcomeCached Outcome = iota
	// OutcomeRevalidated means the remote commit was unchanged and the scan was skipped
	OutcomeRevalidated
	// OutcomeScanned means a full fetch and scan ran
	OutcomeScanned
)

// String names the outcome for logs
func (o Outcome) String() string {
	switch o {
	case OutcomeRevalidated:
		return "revalidated"
	case OutcomeScanned:
		return "scanned"
	default:
		return "cached"
	}
}

// Result is what every caller of one run receives
// Record.Languages is shared across callers and must be treated as read-only
type Result struct {
	Record  domain.StatsRecord
	Outcome Outcome
	// Shared is true when more than one caller received this run's result
	Shared bool
}

// Stats are pipeline counters for the meta endpoints
type Stats struct {
	InFlight  int64  `json:"in_flight"`
	Runs      uint64 `json:"runs"`
	Shortcuts uint64 `json:"revalidation_shortcuts"`
	Failures  uint64 `json:"failures"`
	Abandoned uint64 `json:"abandoned_waits"`
}

// Coordinator coalesces concurrent resolves of the same key into one pipeline run
type Coordinator struct {
	store   Store
	fetch   domain.Fetcher
	scan    domain.Scanner
	budgets guardrails.Timeouts
	tracer  trace.Tracer

	group singleflight.Group

	inflight                               atomic.Int64
	runs, shortcuts, failures, abandoned atomic.Uint64
}

// Option tunes a Coordinator
type Option func(*Coordinator)

// WithTimeouts sets the pipeline budgets
func WithTimeouts(t guardrails.Timeouts) Option {
	return func(c *Coordinator) { c.budgets = t }
}

// WithTracer sets the tracer used for pipeline spans
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New builds a coordinator over store with the given collaborators
func New(store Store, fetch domain.Fetcher, scan domain.Scanner, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		fetch:   fetch,
		scan:    scan,
		budgets: guardrails.FromConfig(domain.DefaultConfig()),
		tracer:  potel.Tracer("tokeisrv/badges"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resolve returns a current record for key, joining an in-flight run when there is one
// force skips the fresh shortcut so a fresh record is revalidated against the remote
// if ctx ends first the caller gets Unavailable while the run carries on for the others
func (c *Coordinator) Resolve(ctx context.Context, key domain.CacheKey, coord domain.Coordinate, force bool) (Result, error) {
	ch := c.group.DoChan(string(key), func() (any, error) {
		return c.run(ctx, key, coord, force)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		out := res.Val.(Result)
		out.Shared = res.Shared
		return out, nil
	case <-ctx.Done():
		c.abandoned.Add(1)
		return Result{}, perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "gave up waiting for repository stats")
	}
}

// Stats snapshots the counters
func (c *Coordinator) Stats() Stats {
	return Stats{
		InFlight:  c.inflight.Load(),
		Runs:      c.runs.Load(),
		Shortcuts: c.shortcuts.Load(),
		Failures:  c.failures.Load(),
		Abandoned: c.abandoned.Load(),
	}
}

// run is the body of one coalesced execution, it never panics out
func (c *Coordinator) run(parent context.Context, key domain.CacheKey, coord domain.Coordinate, force bool) (res Result, err error) {
	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	ctx, cancel := guardrails.Detached(parent, c.budgets)
	defer cancel()

	runID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "badges.pipeline", trace.WithAttributes(
		attribute.String("cache.key", string(key)),
		attribute.String("run.id", runID),
		attribute.Bool("force", force),
	))
	log := logger.C(ctx).With().Str("run_id", runID).Str("key", string(key)).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("pipeline panic")
			err = perr.WithOp(perr.PanicErrf("pipeline panic: %v", r), "pipeline")
			res = Result{}
		}
		if err != nil {
			c.failures.Add(1)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn().Err(err).Msg("pipeline failed")
		} else {
			span.SetAttributes(attribute.String("outcome", res.Outcome.String()), attribute.String("commit", res.Record.CommitID))
		}
		span.End()
	}()

	lk := c.store.Peek(key)
	if lk.State == cache.Fresh && !force {
		return Result{Record: lk.Record, Outcome: OutcomeCached}, nil
	}

	c.runs.Add(1)
	start := time.Now()

	if lk.State != cache.Absent {
		head, err := c.head(ctx, coord)
		if err != nil {
			return Result{}, err
		}
		if head == lk.Record.CommitID {
			rec := lk.Record
			rec.InsertedAt = c.store.Now()
			rec.FingerprintHash = fingerprint.Hash(key)
			rec, err = c.commit(key, rec)
			if err != nil {
				return Result{}, err
			}
			c.shortcuts.Add(1)
			log.Info().Str("commit", head).Dur("elapsed", time.Since(start)).Msg("commit unchanged; scan skipped")
			return Result{Record: rec, Outcome: OutcomeRevalidated}, nil
		}
		log.Info().Str("was", lk.Record.CommitID).Str("now", head).Msg("commit moved; rescanning")
	}

	rec, err := c.fetchAndScan(ctx, key, coord)
	if err != nil {
		return Result{}, err
	}
	rec, err = c.commit(key, rec)
	if err != nil {
		return Result{}, err
	}
	log.Info().
		Str("commit", rec.CommitID).
		Int("lines", rec.Summary.Lines).
		Int("languages", len(rec.Languages)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline done")
	return Result{Record: rec, Outcome: OutcomeScanned}, nil
}

func (c *Coordinator) head(ctx context.Context, coord domain.Coordinate) (string, error) {
	ctx, cancel := guardrails.ForFetch(ctx, c.budgets)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, "badges.head")
	defer span.End()

	commit, err := c.fetch.Head(ctx, coord)
	if err != nil {
		return "", guardrails.Classify(err, "head")
	}
	if commit == "" {
		return "", perr.WithOp(perr.Upstreamf("remote reported no commit for %s", coord), "head")
	}
	return commit, nil
}

func (c *Coordinator) fetchAndScan(ctx context.Context, key domain.CacheKey, coord domain.Coordinate) (domain.StatsRecord, error) {
	fctx, fcancel := guardrails.ForFetch(ctx, c.budgets)
	fctx, fspan := c.tracer.Start(fctx, "badges.fetch")
	co, err := c.fetch.Checkout(fctx, coord)
	fspan.End()
	fcancel()
	if err != nil {
		return domain.StatsRecord{}, guardrails.Classify(err, "fetch")
	}
	if co.Cleanup != nil {
		defer co.Cleanup()
	}
	if co.CommitID == "" {
		return domain.StatsRecord{}, perr.WithOp(perr.Upstreamf("checkout of %s has no commit", coord), "fetch")
	}

	sctx, scancel := guardrails.ForScan(ctx, c.budgets)
	defer scancel()
	sctx, sspan := c.tracer.Start(sctx, "badges.scan")
	defer sspan.End()

	report, err := c.scan.Scan(sctx, co.Path)
	if err != nil {
		return domain.StatsRecord{}, guardrails.Classify(err, "scan")
	}
	return domain.StatsRecord{
		InsertedAt:      c.store.Now(),
		CommitID:        co.CommitID,
		FingerprintHash: fingerprint.Hash(key),
		Summary:         report.Summary,
		Languages:       report.Languages,
	}, nil
}

// commit stores rec and returns what the cache now holds for key
func (c *Coordinator) commit(key domain.CacheKey, rec domain.StatsRecord) (domain.StatsRecord, error) {
	stored, err := c.store.Put(key, rec)
	if err != nil {
		return domain.StatsRecord{}, err
	}
	if !stored {
		if lk := c.store.Peek(key); lk.State != cache.Absent {
			return lk.Record, nil
		}
	}
	return rec, nil
}
