// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "tokeisrv/internal/platform/net/http"
)

// Module is a mountable unit of the HTTP surface
type Module interface {
	// MountRoutes attaches the module's handlers, under its own prefix if it has one
	MountRoutes(r phttp.Router)
	// Ports returns the port set other modules may consume, nil when there is none
	Ports() any
	// Name keys the module in the registry and in logs
	Name() string
}
