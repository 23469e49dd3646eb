// Package guardrails holds the time budgets applied to a fetch and scan pipeline
package guardrails

import (
	"context"
	"errors"
	"time"

	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/services/badges/domain"
)

// Timeouts is the budget bundle for one pipeline run
// zero values mean no extra timeout at that level
type Timeouts struct {
	// Pipeline is the overall budget for head, fetch and scan together
	Pipeline time.Duration

	// Fetch caps the head lookup and the checkout each
	Fetch time.Duration

	// Scan caps the line count pass
	Scan time.Duration
}

// FromConfig takes the budgets from the service config
func FromConfig(cfg domain.Config) Timeouts {
	return Timeouts{Pipeline: cfg.PipelineTimeout, Fetch: cfg.FetchTimeout, Scan: cfg.ScanTimeout}
}

// Detached returns a context for a shared pipeline run
// it keeps parent values but drops its cancellation so one abandoned caller never stops work others wait on
func Detached(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(context.WithoutCancel(parent), t.Pipeline)
}

// ForFetch returns a sub context for the fetch phase bounded by Fetch and any remaining parent budget
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForScan returns a sub context for the scan phase bounded by Scan and any remaining parent budget
func ForScan(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Scan)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// Classify maps a stage failure onto the service error codes
// deadline overruns become Unavailable, coded errors pass through, the rest are Upstream
func Classify(err error, stage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s timed out", stage), stage)
	}
	if _, ok := perr.As(err); ok {
		return perr.WithOp(err, stage)
	}
	return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUpstream, "%s failed", stage), stage)
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder
// never extends the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
