package module

import (
	"context"

	"tokeisrv/internal/services/badges/service"
)

// StatsPort is what other modules may read from the badge service
type StatsPort interface {
	Stats() service.Stats
	Ping(ctx context.Context) error
}

// Ports exposed by the badges module
type Ports struct {
	Stats StatsPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
