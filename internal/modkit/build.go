package modkit

import (
	"net/http"

	"tokeisrv/internal/modkit/httpkit"
)

// Option adjusts how a module is named, mounted and wired
type Option func(*Built)

// WithName names the module for the registry and logs
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix mounts the module under prefix instead of the root
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends middleware applied to the module's routes only
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands the module the collaborators it consumes, the type is owned by the receiving module
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithRegister adds a hook that attaches extra endpoints after the module's own routes
func WithRegister(fn func(httpkit.Router)) Option {
	return func(b *Built) { b.Register = fn }
}

// Built is the resolved option set a module keeps for mounting
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any

	// Register is never nil after Build
	Register func(httpkit.Router)
}

// Build applies opts in order
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	if b.Register == nil {
		b.Register = func(httpkit.Router) {}
	}
	// detach from the caller's slice so later appends cannot alias
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}

// Mount attaches the module's routes plus the Register hook, under Prefix when set
func (b Built) Mount(r httpkit.Router, mount func(httpkit.Router)) {
	attach := func(sub httpkit.Router) {
		mount(sub)
		b.Register(sub)
	}
	switch {
	case b.Prefix != "":
		httpkit.MountUnder(r, b.Prefix, b.Mw, attach)
	case len(b.Mw) > 0:
		attach(r.With(b.Mw...))
	default:
		attach(r)
	}
}
