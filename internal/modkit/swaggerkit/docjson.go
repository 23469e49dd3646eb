// Package swaggerkit serves the OpenAPI document and mounts the swagger UI
package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tokeisrv/internal/core/version"
	"tokeisrv/internal/platform/config"
	perr "tokeisrv/internal/platform/errors"
	docs "tokeisrv/internal/services/api/docs"
)

// SpecMutator lets modules tweak the parsed document before it is served
type SpecMutator func(map[string]any)

var mutators []SpecMutator

// docReader is a seam so tests can inject invalid JSON
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

// badgeTag marks operations that answer with images as well as JSON
const badgeTag = "badges"

// exampleRequestID mirrors the chi request id format
const exampleRequestID = "579f33bf50b1/abc-000001"

// badgeFailures are the coded failures a badge route can answer with, in status order
var badgeFailures = []struct {
	code perr.ErrorCode
	desc string
	msg  string
}{
	{perr.ErrorCodeForbidden, "Repository not allowed", "owner bob is not allowed"},
	{perr.ErrorCodeNotFound, "Repository or branch not found", "branch dev not found"},
	{perr.ErrorCodeUpstream, "Fetch or scan failed", "fetch github.com/alice/tool failed"},
	{perr.ErrorCodeUnavailable, "Pipeline timed out", "pipeline timed out"},
}

// Register adds a spec mutator, nil is ignored
func Register(m SpecMutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/")
		stampInfo(spec, config.New().Prefix("TOKEI_").MayString("DOCS_TITLE_SUFFIX", ""))
		ensureErrorSchema(spec)

		eachOperation(spec, func(op map[string]any) {
			setDefault(op, perr.ErrorCodeUnknown, jsonError(perr.ErrorCodeUnknown, "internal error", ""))
			if hasQuery(op) {
				setDefault(op, perr.ErrorCodeValidation,
					jsonError(perr.ErrorCodeValidation, "category must be one of [lines code blanks comments files]", "category"))
			}
			if hasTag(op, badgeTag) {
				for _, f := range badgeFailures {
					setDefault(op, f.code, badgeError(f.code, f.desc, f.msg))
				}
			}
		})

		for _, m := range mutators {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers lifts the document to OAS 3.0.3 and adds a servers array
// the bundled UI renders 3.0 only so 3.1 is downsampled
func ensureServers(spec map[string]any, url string) {
	if _, ok := spec["swagger"]; ok {
		delete(spec, "swagger")
	}
	if v, _ := spec["openapi"].(string); !strings.HasPrefix(v, "3.0") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// stampInfo reports the running build version and appends an optional title suffix
func stampInfo(spec map[string]any, suffix string) {
	info, ok := spec["info"].(map[string]any)
	if !ok {
		info = map[string]any{}
		spec["info"] = info
	}
	info["version"] = version.Info().Version
	if title, ok := info["title"].(string); ok && suffix != "" {
		info["title"] = title + " " + suffix
	}
}

// ensureErrorSchema adds the JSON error envelope model when the document lacks it
func ensureErrorSchema(spec map[string]any) {
	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Error envelope",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// eachOperation calls fn for every operation object under paths
func eachOperation(spec map[string]any, fn func(op map[string]any)) {
	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, v := range node {
			if op, ok := v.(map[string]any); ok {
				fn(op)
			}
		}
	}
}

// setDefault installs resp under the status code mapped from code unless the operation documents it
func setDefault(op map[string]any, code perr.ErrorCode, resp map[string]any) {
	responses := child(op, "responses")
	status := strconv.Itoa(perr.HTTPStatusCode(code))
	if _, ok := responses[status]; !ok {
		responses[status] = resp
	}
}

func envelope(code perr.ErrorCode, msg, field string) map[string]any {
	status := perr.HTTPStatusCode(code)
	ex := map[string]any{
		"status_code": status,
		"status":      http.StatusText(status),
		"code":        int(code),
		"error":       msg,
		"request_id":  exampleRequestID,
	}
	if field != "" {
		ex["field"] = field
	}
	return map[string]any{
		"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
		"example": ex,
	}
}

func jsonError(code perr.ErrorCode, msg, field string) map[string]any {
	return map[string]any{
		"description": http.StatusText(perr.HTTPStatusCode(code)),
		"content":     map[string]any{"application/json": envelope(code, msg, field)},
	}
}

// badgeError documents both renditions, an error badge by default and the envelope for Accept: application/json
func badgeError(code perr.ErrorCode, desc, msg string) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"image/svg+xml":    map[string]any{"schema": map[string]any{"type": "string"}},
			"application/json": envelope(code, msg, ""),
		},
	}
}

func hasQuery(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	for _, p := range params {
		if m, ok := p.(map[string]any); ok && m["in"] == "query" {
			return true
		}
	}
	return false
}

func hasTag(op map[string]any, tag string) bool {
	tags, _ := op["tags"].([]any)
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// child returns m[key] as a map, creating it when absent
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}
