package http

import (
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"
)

// MountSwagger mounts the swagger UI under prefix reading the spec from specURL
func MountSwagger(r Router, prefix, specURL string, enabled bool) {
	if !enabled {
		return
	}
	prefix = "/" + strings.Trim(prefix, "/")
	r.Get(prefix, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, prefix+"/", http.StatusPermanentRedirect)
	})
	r.Handle(prefix+"/*", httpSwagger.Handler(httpSwagger.URL(specURL)))
}
