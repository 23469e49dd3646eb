package swaggerkit

import (
	phttp "tokeisrv/internal/platform/net/http"
)

const (
	// DocsPrefix is where the swagger UI lives
	DocsPrefix = "/api/docs"
	// DocJSONPath serves the decorated OpenAPI document
	DocJSONPath = DocsPrefix + "/doc.json"
)

// Mount the Swagger UI and JSON spec if enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(DocJSONPath, serveDocJSON())
	phttp.MountSwagger(r, DocsPrefix, DocJSONPath, true)
}
