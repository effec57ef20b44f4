// Package docs registers the swagger specification served at /api/swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/chat": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "List conversations",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Send a message (non-streaming)",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/chat/stream": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["Chat"],
                "summary": "Send a message (streaming)",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query", "required": true},
                    {"type": "string", "name": "conversationId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/chat/{conversationID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Get one conversation",
                "parameters": [
                    {"type": "string", "name": "conversationID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "AI Chat API",
	Description:      "Streaming chat backend: conversations, messages, and SSE completion relay.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
