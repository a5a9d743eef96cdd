// Package docs registers the Swagger document served at /swagger/*. Keep it in step with the
// handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
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
                "description": "get the status of server",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Show the status of server",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/ws": {
            "get": {
                "description": "Upgrades to a websocket. Pass an access token as ?token= or Authorization: Bearer to receive your own events.",
                "tags": ["realtime"],
                "summary": "Realtime notifications",
                "parameters": [
                    {"type": "string", "description": "Access token", "name": "token", "in": "query"}
                ],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        },
        "/api/v1/users/register": {
            "post": {
                "description": "Creates a principal and starts its session. ` + "`" + `name` + "`" + ` is accepted as an alias for ` + "`" + `username` + "`" + `.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Registration payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/login": {
            "post": {
                "description": "Verifies credentials and replaces any existing refresh session.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/refresh": {
            "post": {
                "description": "Exchanges a refresh token for a new pair. Each refresh token works once.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Rotate tokens",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TokenPair"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/users/logout": {
            "post": {
                "description": "Ends the session holding the given refresh token. Succeeds even if no session matches.",
                "consumes": ["application/json"],
                "tags": ["users"],
                "summary": "Log out",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/model.RefreshRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/model.Principal"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/notifications/push/public-key": {
            "get": {
                "description": "Returns the key browsers need to create a push subscription. ` + "`" + `enabled` + "`" + ` is false when push is not configured.",
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "VAPID public key",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/notifications/push/subscription": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Stores the browser subscription. Re-subscribing with the same endpoint replaces its keys.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Save a push subscription",
                "parameters": [
                    {"description": "Browser push subscription", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.PushSubscription"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.PushSubscription"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Removes the given endpoint, or every subscription of the user when no endpoint is sent.",
                "consumes": ["application/json"],
                "tags": ["notifications"],
                "summary": "Remove push subscriptions",
                "parameters": [
                    {"description": "Endpoint to remove", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/model.UnsubscribeRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/v1/notifications/events": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Queues the event for the caller's sockets and push subscriptions. Delivery is best effort.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Publish a domain event",
                "parameters": [
                    {"description": "Event", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.PublishEventRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "common.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "model.Principal": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "model.TokenPair": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "model.AuthResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/model.Principal"},
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "model.RegisterRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "username": {"type": "string", "maxLength": 60},
                "name": {"type": "string", "maxLength": 60},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "confirmPassword": {"type": "string"}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "model.RefreshRequest": {
            "type": "object",
            "required": ["refreshToken"],
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "model.PushKeys": {
            "type": "object",
            "properties": {
                "p256dh": {"type": "string"},
                "auth": {"type": "string"}
            }
        },
        "model.PushSubscription": {
            "type": "object",
            "properties": {
                "endpoint": {"type": "string"},
                "expirationTime": {"type": "integer"},
                "keys": {"$ref": "#/definitions/model.PushKeys"},
                "createdAt": {"type": "string"}
            }
        },
        "model.UnsubscribeRequest": {
            "type": "object",
            "properties": {
                "endpoint": {"type": "string"}
            }
        },
        "model.ItemSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "model.PublishEventRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "eventId": {"type": "string"},
                "type": {"type": "string"},
                "itemType": {"type": "string", "enum": ["task", "reminder", "goal", "note"]},
                "item": {"$ref": "#/definitions/model.ItemSummary"},
                "message": {"type": "string", "maxLength": 500}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:4000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Noxa API",
	Description:      "Session lifecycle and notification fanout for the Noxa productivity app.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
