// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"tokeisrv/internal/core/version"
	modkit "tokeisrv/internal/modkit"
	"tokeisrv/internal/modkit/httpkit"
	str "tokeisrv/internal/platform/strings"

	metahttp "tokeisrv/internal/services/api/meta/http"
)

// Ports are the collaborators the meta module reads, pass them with modkit.WithPorts
type Ports struct {
	Badges metahttp.BadgeSource
}

// Module implements the modkit.Module interface
type Module struct {
	built modkit.Built
	deps  metahttp.Deps
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	deps = deps.WithDefaults()
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	ports, _ := b.Ports.(Ports)
	return &Module{
		built: b,
		deps: metahttp.Deps{
			ServiceName: version.Service,
			StartedAt:   deps.Clock.Now(),
			Clock:       deps.Clock,
			Badges:      ports.Badges,
		},
	}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) {
		metahttp.Register(rr, m.deps)
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.built.Name, "meta") }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return str.MustPrefix(m.built.Prefix) }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
