// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/sessions": {
            "get": {"tags": ["sessions"], "summary": "Upcoming sessions", "produces": ["application/json"], "responses": {"200": {"description": "sessions"}}}
        },
        "/sessions/{sessionID}": {
            "get": {"tags": ["sessions"], "summary": "Session", "parameters": [{"type": "integer", "name": "sessionID", "in": "path", "required": true}], "responses": {"200": {"description": "session"}, "404": {"description": "not found"}}}
        },
        "/sessions/{sessionID}/window": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Buy window for the caller", "parameters": [{"type": "integer", "name": "sessionID", "in": "path", "required": true}], "responses": {"200": {"description": "window"}}}
        },
        "/sessions/{sessionID}/buysells": {
            "get": {"tags": ["marketplace"], "summary": "Session orders with status and queue position", "parameters": [{"type": "integer", "name": "sessionID", "in": "path", "required": true}], "responses": {"200": {"description": "orders"}}}
        },
        "/sessions/{sessionID}/statuses": {
            "get": {"tags": ["sessions"], "summary": "Player statuses for a session", "parameters": [{"type": "integer", "name": "sessionID", "in": "path", "required": true}], "responses": {"200": {"description": "players"}}}
        },
        "/sessions/{sessionID}/buy": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Join the BUYING queue or match the oldest seller", "parameters": [{"type": "integer", "name": "sessionID", "in": "path", "required": true}, {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/services.SubmitInput"}}], "responses": {"201": {"description": "order and activity"}, "403": {"description": "window closed"}, "409": {"description": "invalid state or conflict"}}}
        },
        "/sessions/{sessionID}/sell": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Join the SELLING queue or match the oldest buyer", "parameters": [{"type": "integer", "name": "sessionID", "in": "path", "required": true}, {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/services.SubmitInput"}}], "responses": {"201": {"description": "order and activity"}, "409": {"description": "invalid state or conflict"}}}
        },
        "/buysells/{buySellID}": {
            "get": {"tags": ["marketplace"], "summary": "Order with status", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "order"}, "404": {"description": "not found"}}}
        },
        "/buysells/{buySellID}/queue-position": {
            "get": {"tags": ["marketplace"], "summary": "Queue position, null when matched or missing", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "queue_position"}}}
        },
        "/buysells/{buySellID}/payment-sent": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Buyer confirms payment sent", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "order and activity"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Buyer withdraws payment sent", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "order and activity"}}}
        },
        "/buysells/{buySellID}/payment-received": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Seller confirms payment received", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "order and activity"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Seller withdraws payment received", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "order and activity"}}}
        },
        "/buysells/{buySellID}/buy": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Leave the BUYING queue", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "activity"}, "409": {"description": "already matched"}}}
        },
        "/buysells/{buySellID}/sell": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Leave the SELLING queue", "parameters": [{"type": "integer", "name": "buySellID", "in": "path", "required": true}], "responses": {"200": {"description": "activity"}, "409": {"description": "already matched"}}}
        },
        "/lockerroom13": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["lockerroom13"], "summary": "LockerRoom13 statuses for upcoming sessions", "responses": {"200": {"description": "sessions"}, "403": {"description": "not a member"}}}
        },
        "/admin/lockerroom13/snapshot": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Publish LockerRoom13 snapshot to object storage", "responses": {"201": {"description": "snapshot"}, "503": {"description": "storage not configured"}}}
        }
    },
    "definitions": {
        "services.SubmitInput": {
            "type": "object",
            "properties": {
                "note": {"type": "string"},
                "price": {"type": "number"},
                "payment_method": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "League Buy/Sell API",
	Description:      "Spot marketplace and roster status for league sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
