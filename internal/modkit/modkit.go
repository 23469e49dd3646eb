package modkit

import "tokeisrv/internal/modkit/module"

// Module is what a service hands to the API bootstrap: routes, a port set and a registry name
// the contract lives in modkit/module so port consumers avoid importing modkit
type Module = module.Module
