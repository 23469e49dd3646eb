// Package docs registers the OpenAPI document for the HTTP surface
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
  "openapi": "3.0.3",
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "paths": {
    "/b1/{host}/{owner}/{repo}": {
      "get": {
        "summary": "Line count badge for a repository",
        "tags": ["badges"],
        "parameters": [
          {"name": "host", "in": "path", "required": true, "schema": {"type": "string"}, "description": "git host, github expands to github.com"},
          {"name": "owner", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "repo", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "branch", "in": "query", "schema": {"type": "string"}},
          {"name": "category", "in": "query", "schema": {"type": "string", "enum": ["lines", "code", "comments", "blanks", "files"]}},
          {"name": "label", "in": "query", "schema": {"type": "string"}},
          {"name": "style", "in": "query", "schema": {"type": "string", "enum": ["flat", "flat-square", "plastic", "for-the-badge", "social"]}},
          {"name": "color", "in": "query", "schema": {"type": "string"}},
          {"name": "logo", "in": "query", "schema": {"type": "string"}},
          {"name": "type", "in": "query", "schema": {"type": "string"}, "description": "comma separated languages to count"},
          {"name": "show_language", "in": "query", "schema": {"type": "boolean"}},
          {"name": "language_rank", "in": "query", "schema": {"type": "integer", "minimum": 0}, "description": "1 based rank by code lines"},
          {"name": "Accept", "in": "header", "schema": {"type": "string"}, "description": "application/json selects the JSON summary"},
          {"name": "If-None-Match", "in": "header", "schema": {"type": "string"}},
          {"name": "Cache-Control", "in": "header", "schema": {"type": "string"}, "description": "no-cache asks for revalidation when the server allows it"}
        ],
        "responses": {
          "200": {
            "description": "Badge",
            "headers": {
              "ETag": {"schema": {"type": "string"}},
              "X-Cache-Status": {"schema": {"type": "string", "enum": ["hit", "miss", "stale", "revalidated"]}}
            },
            "content": {
              "image/svg+xml": {"schema": {"type": "string"}},
              "application/json": {"schema": {"$ref": "#/components/schemas/Stats"}}
            }
          },
          "304": {"description": "Not Modified"}
        }
      }
    },
    "/api/v1/meta/health": {
      "get": {"summary": "Liveness", "tags": ["meta"], "responses": {"200": {"description": "OK"}}}
    },
    "/api/v1/meta/ready": {
      "get": {"summary": "Readiness", "tags": ["meta"], "responses": {"200": {"description": "OK"}, "503": {"description": "Not ready"}}}
    },
    "/api/v1/meta/version": {
      "get": {"summary": "Build version", "tags": ["meta"], "responses": {"200": {"description": "OK"}}}
    },
    "/api/v1/meta/service": {
      "get": {"summary": "Service name, start time and mounted modules", "tags": ["meta"], "responses": {"200": {"description": "OK"}}}
    },
    "/api/v1/meta/cache": {
      "get": {"summary": "Repository cache statistics", "tags": ["meta"], "responses": {"200": {"description": "OK"}}}
    }
  },
  "components": {
    "schemas": {
      "Language": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "files": {"type": "integer"},
          "lines": {"type": "integer"},
          "code": {"type": "integer"},
          "comments": {"type": "integer"},
          "blanks": {"type": "integer"}
        }
      },
      "Stats": {
        "type": "object",
        "properties": {
          "lines": {"type": "integer"},
          "code": {"type": "integer"},
          "comments": {"type": "integer"},
          "blanks": {"type": "integer"},
          "files": {"type": "integer"},
          "languages": {"type": "array", "items": {"$ref": "#/components/schemas/Language"}}
        }
      }
    }
  }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1",
	Title:            "tokeisrv",
	Description:      "Per repository line count badges",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
