// Package docs registers the Swagger document served at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{.Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Process metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/signup": {
            "post": {
                "description": "Create a local account and start a session. Form posts are redirected to \"/\", JSON clients get 201.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Signup request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.CredentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "User registered", "schema": {"$ref": "#/definitions/domain.Principal"}},
                    "302": {"description": "Redirect to / on success, /login when the username is taken"},
                    "400": {"description": "Undecodable body", "schema": {"$ref": "#/definitions/auth.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Verify a username and password and start a session",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "tags": ["Authentication"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Login request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.CredentialsRequest"}}
                ],
                "responses": {
                    "302": {"description": "Redirect to / on success, /login on failure"},
                    "400": {"description": "Undecodable body", "schema": {"$ref": "#/definitions/auth.ErrorResponse"}}
                }
            }
        },
        "/logout": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Log out",
                "responses": {
                    "302": {"description": "Redirect to /"}
                }
            }
        },
        "/auth/github": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Start GitHub login",
                "responses": {
                    "302": {"description": "Redirect to GitHub, or /login when GitHub login is disabled"}
                }
            }
        },
        "/auth/github/callback": {
            "get": {
                "tags": ["Authentication"],
                "summary": "GitHub OAuth callback",
                "parameters": [
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query", "required": true},
                    {"type": "string", "description": "State issued by /auth/github", "name": "state", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to / on success, /login on failure"}
                }
            }
        },
        "/links": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "List links",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Link"}}},
                    "302": {"description": "Redirect to /login when not signed in"}
                }
            },
            "post": {
                "description": "Returns the existing link when the URL was already shortened. Invalid URLs and unreachable pages yield 404.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "Shorten a URL",
                "parameters": [
                    {"description": "URL to shorten", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreateLinkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Link"}},
                    "400": {"description": "Undecodable body", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Invalid URL or title fetch failed"}
                }
            }
        },
        "/links/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "Link statistics",
                "parameters": [
                    {"type": "string", "description": "Short code", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.LinkStatsResponse"}},
                    "404": {"description": "Unknown code", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/{code}": {
            "get": {
                "tags": ["Redirect"],
                "summary": "Follow a short link",
                "parameters": [
                    {"type": "string", "description": "Short code", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to the link URL, or / for unknown codes"},
                    "500": {"description": "Storage error"}
                }
            }
        }
    },
    "definitions": {
        "auth.CredentialsRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "domain.Principal": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "display_name": {"type": "string"},
                "auth_method": {"type": "string"}
            }
        },
        "domain.Link": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "code": {"type": "string"},
                "url": {"type": "string"},
                "title": {"type": "string"},
                "base_url": {"type": "string"},
                "owner_id": {"type": "integer"},
                "visits": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "http.CreateLinkRequest": {
            "type": "object",
            "properties": {
                "url": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"},
                "database_status": {"type": "string"},
                "uptime": {"type": "string"}
            }
        },
        "http.LinkStatsResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "code": {"type": "string"},
                "url": {"type": "string"},
                "title": {"type": "string"},
                "base_url": {"type": "string"},
                "owner_id": {"type": "integer"},
                "visits": {"type": "integer"},
                "created_at": {"type": "string"},
                "short_url": {"type": "string"},
                "clicks": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:4568",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Shortly URL Shortener API",
	Description:      "URL shortener with visit accounting and password or GitHub login.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
