package api

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "schemes": {{ marshal .Schemes }},
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "in": "header", "name": "X-API-Key"}
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/health": {
            "get": {
                "summary": "Service health",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/records/decode": {
            "post": {
                "summary": "Decode a stream of ISO 2709 records into documents",
                "consumes": ["application/octet-stream"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "One entry per record, with per-record errors"},
                    "413": {"description": "Body too large"}
                }
            }
        },
        "/records/encode": {
            "post": {
                "summary": "Encode a record document into ISO 2709",
                "consumes": ["application/json"],
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "Encoded record"},
                    "400": {"description": "Invalid document"},
                    "422": {"description": "Record cannot be encoded with the configured format"}
                }
            }
        },
        "/archive": {
            "get": {
                "summary": "List archived record ids in creation order",
                "parameters": [
                    {"name": "after", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Page of ids"}}
            },
            "post": {
                "summary": "Archive one ISO 2709 record",
                "consumes": ["application/octet-stream"],
                "responses": {
                    "201": {"description": "Stored"},
                    "422": {"description": "Malformed record"}
                }
            }
        },
        "/archive/search": {
            "get": {
                "summary": "Search archived records by field value",
                "parameters": [
                    {"name": "field", "in": "query", "type": "string", "required": true},
                    {"name": "op", "in": "query", "type": "string"},
                    {"name": "value", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Matching records"},
                    "400": {"description": "Invalid query"}
                }
            }
        },
        "/archive/by-record-id/{recordID}": {
            "get": {
                "summary": "Find the archive id of a record by its 001 identifier",
                "parameters": [{"name": "recordID", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Archive id"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/archive/{id}": {
            "get": {
                "summary": "Fetch an archived record",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["raw", "json"]}
                ],
                "responses": {
                    "200": {"description": "Record bytes or document"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "summary": "Delete an archived record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "ISO 2709 Record API",
	Description:      "Encode, decode and archive ISO 2709 bibliographic records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
