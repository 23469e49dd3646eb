// Package modkit provides module wiring and core deps
package modkit

import (
	"tokeisrv/internal/platform/config"
	"tokeisrv/internal/platform/logger"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log    *logger.Logger
	Cfg    config.Conf
	Clock  clockwork.Clock
	Tracer trace.Tracer
}

// WithDefaults fills unset fields so modules never nil check the logger, clock or tracer
func (d Deps) WithDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Get()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer("tokeisrv")
	}
	return d
}
