// Package module wires the badge service into the API using modkit
package module

import (
	"tokeisrv/internal/adapters/gitremote"
	"tokeisrv/internal/core/linecount"
	modkit "tokeisrv/internal/modkit"
	"tokeisrv/internal/modkit/httpkit"
	str "tokeisrv/internal/platform/strings"
	"tokeisrv/internal/services/badges/access"
	"tokeisrv/internal/services/badges/cache"
	"tokeisrv/internal/services/badges/coordinator"
	"tokeisrv/internal/services/badges/domain"
	"tokeisrv/internal/services/badges/guardrails"
	badgeshttp "tokeisrv/internal/services/badges/http"
	"tokeisrv/internal/services/badges/service"
)

// Name is the registry name of the module
const Name = "badges"

// Collaborators overrides the fetch and scan implementations, pass it with modkit.WithPorts
type Collaborators struct {
	Fetcher domain.Fetcher
	Scanner domain.Scanner
}

// Module implements modkit.Module for the badge endpoint
type Module struct {
	built modkit.Built
	cfg   domain.Config
	svc   *service.Service
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New builds the cache, coordinator and service from cfg
// without Collaborators the remote is fetched with go-git and counted with gocloc
func New(deps modkit.Deps, cfg domain.Config, opts ...modkit.Option) (*Module, error) {
	customTracer := deps.Tracer != nil
	deps = deps.WithDefaults()

	b := modkit.Build(append([]modkit.Option{modkit.WithName(Name)}, opts...)...)

	collab, _ := b.Ports.(Collaborators)
	if collab.Fetcher == nil {
		collab.Fetcher = gitremote.New(gitremote.Options{
			WorkDir:    cfg.WorkDir,
			Token:      cfg.GitToken,
			TokenHosts: cfg.GitTokenHosts,
			Depth:      1,
		})
	}
	if collab.Scanner == nil {
		collab.Scanner = NewScanner(linecount.New(CounterOptions(cfg)...))
	}

	c, err := cache.New(cfg.MaxEntries, cfg.TTL, cache.WithClock(deps.Clock))
	if err != nil {
		return nil, err
	}

	copts := []coordinator.Option{coordinator.WithTimeouts(guardrails.FromConfig(cfg))}
	if customTracer {
		copts = append(copts, coordinator.WithTracer(deps.Tracer))
	}
	coord := coordinator.New(c, collab.Fetcher, collab.Scanner, copts...)

	gate := access.FromConfig(cfg)
	svc := service.New(gate, c, coord, cfg.AllowClientRevalidate)

	deps.Log.Info().
		Int("cache_size", cfg.MaxEntries).
		Dur("cache_ttl", cfg.TTL).
		Int("user_whitelist", len(cfg.UserWhitelist)).
		Int("host_whitelist", len(cfg.HostWhitelist)).
		Msg("badges module ready")

	return &Module{
		built: b,
		cfg:   cfg,
		svc:   svc,
		ports: Ports{Stats: svc},
	}, nil
}

// MountRoutes mounts / and /b1 under the module prefix, usually the root
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) {
		badgeshttp.Register(rr, m.svc, m.cfg.HomeURL)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.built.Name, "module name") }

// Service exposes the wired service, mostly for tests
func (m *Module) Service() *service.Service { return m.svc }
