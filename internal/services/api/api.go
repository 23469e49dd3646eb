// Package api provides the HTTP surface of the service
package api

import (
	"time"

	"tokeisrv/internal/platform/config"
	"tokeisrv/internal/platform/logger"
	phttp "tokeisrv/internal/platform/net/http"
	"tokeisrv/internal/platform/net/middleware"

	"tokeisrv/internal/modkit"
	"tokeisrv/internal/modkit/httpkit"
	"tokeisrv/internal/modkit/module"
	"tokeisrv/internal/modkit/swaggerkit"

	metamod "tokeisrv/internal/services/api/meta/module"
	"tokeisrv/internal/services/badges/domain"
	badgesmod "tokeisrv/internal/services/badges/module"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
)

// badgeGrace keeps the request timeout a little above the pipeline budget
// so a waiter sees the pipeline's own timeout error first
const badgeGrace = 5 * time.Second

// Options are the API options
type Options struct {
	Config config.Conf
	Badges domain.Config
	Logger *logger.Logger
	Clock  clockwork.Clock
	Tracer trace.Tracer

	// Collaborators replaces the git and line count backends, nil uses the real ones
	Collaborators *badgesmod.Collaborators

	EnableSwagger  bool
	EnableProfiler bool
	// CORSOrigins limits cross-origin reads, empty allows any origin
	CORSOrigins []string
	// SlowRequest marks requests slower than this as warn in the access log
	SlowRequest time.Duration
}

// Mount mounts the badge routes at the root and the meta API under /api/v1
func Mount(r phttp.Router, opt Options) error {
	deps := modkit.Deps{
		Log:    opt.Logger,
		Cfg:    opt.Config,
		Clock:  opt.Clock,
		Tracer: opt.Tracer,
	}

	badgeOpts := []modkit.Option{
		modkit.WithMiddlewares(httpkit.BadgeStack(httpkit.StackOptions{
			Timeout: opt.Badges.PipelineTimeout + badgeGrace,
			Slow:    opt.SlowRequest,
			CORS:    middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins},
		})...),
	}
	if opt.Collaborators != nil {
		badgeOpts = append(badgeOpts, modkit.WithPorts(*opt.Collaborators))
	}
	badges, err := badgesmod.New(deps, opt.Badges, badgeOpts...)
	if err != nil {
		return err
	}

	// meta reads cache counters and readiness through the badges port
	stats := module.MustPortsOf[badgesmod.StatsPort](badges)
	meta := metamod.New(deps, modkit.WithPorts(metamod.Ports{Badges: stats}))

	for _, m := range []module.Module{badges, meta} {
		module.Register(m.Name(), m.Ports())
	}

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	// conditional GET needs If-None-Match so badges stay off the NoCache stack
	badges.MountRoutes(r)

	httpkit.MountAPIV1(r, httpkit.CommonStack(httpkit.StackOptions{
		Slow: opt.SlowRequest,
		CORS: middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins},
	}), func(api httpkit.Router) {
		meta.MountRoutes(api)
	})
	return nil
}
