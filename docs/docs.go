// Package docs holds the swagger description served at /swagger.
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
        "/slots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["slots"],
                "summary": "List ad slots",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "size", "in": "query"},
                    {"type": "string", "name": "publisher", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["slots"],
                "summary": "Register an ad slot",
                "parameters": [
                    {"name": "slot", "in": "body", "required": true, "schema": {"$ref": "#/definitions/slots.CreateSlotRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/slots/{slot_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["slots"],
                "summary": "Get an ad slot",
                "parameters": [{"type": "string", "name": "slot_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["slots"],
                "summary": "Delete an ad slot",
                "parameters": [{"type": "string", "name": "slot_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/slots/{slot_id}/occupant": {
            "get": {
                "produces": ["application/json"],
                "tags": ["placements"],
                "summary": "Current occupant of a slot",
                "parameters": [{"type": "string", "name": "slot_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Storage unavailable"}}
            }
        },
        "/slots/{slot_id}/queue": {
            "get": {
                "produces": ["application/json"],
                "tags": ["placements"],
                "summary": "Queue of a slot and the position of a placement",
                "parameters": [
                    {"type": "string", "name": "slot_id", "in": "path", "required": true},
                    {"type": "string", "name": "placement_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/slots/{slot_id}/queue/{placement_id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["placements"],
                "summary": "Withdraw a queued placement",
                "parameters": [
                    {"type": "string", "name": "slot_id", "in": "path", "required": true},
                    {"type": "string", "name": "placement_id", "in": "path", "required": true},
                    {"type": "string", "name": "bidder", "in": "query", "description": "admin only"}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/placements": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["placements"],
                "summary": "Submit a claim settled elsewhere",
                "parameters": [
                    {"name": "claim", "in": "body", "required": true, "schema": {"$ref": "#/definitions/placements.SubmitClaimRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "422": {"description": "Bid below base price"}}
            }
        },
        "/placements/checkout": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["placements"],
                "summary": "Pay for and submit a claim",
                "parameters": [
                    {"type": "string", "name": "X-PAYMENT", "in": "header"},
                    {"name": "checkout", "in": "body", "required": true, "schema": {"$ref": "#/definitions/placements.CheckoutPaymentRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "402": {"description": "Payment required or rejected"}, "503": {"description": "Facilitator unavailable"}}
            }
        },
        "/placements/active": {
            "get": {
                "produces": ["application/json"],
                "tags": ["placements"],
                "summary": "Active placements across all slots",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/content": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Upload ad content",
                "parameters": [{"type": "file", "name": "file", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Created"}, "413": {"description": "Too large"}, "415": {"description": "Unsupported type"}}
            }
        },
        "/content/{ref}": {
            "get": {
                "tags": ["content"],
                "summary": "Fetch ad content",
                "parameters": [{"type": "string", "name": "ref", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/analytics/slots/{slot_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Views, clicks and errors of a slot",
                "parameters": [
                    {"type": "string", "name": "slot_id", "in": "path", "required": true},
                    {"type": "integer", "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "slots.CreateSlotRequest": {
            "type": "object",
            "required": ["slot_id", "size", "base_price"],
            "properties": {
                "slot_id": {"type": "string"},
                "identifier": {"type": "string"},
                "size": {"type": "string", "enum": ["banner", "square", "mobile", "sidebar", "custom"]},
                "width": {"type": "integer"},
                "height": {"type": "integer"},
                "base_price": {"type": "string"},
                "duration_options": {"type": "array", "items": {"type": "string"}},
                "category": {"type": "string"},
                "website_url": {"type": "string"},
                "publisher_wallet": {"type": "string"}
            }
        },
        "placements.SubmitClaimRequest": {
            "type": "object",
            "required": ["slotId", "bidderAddress", "contentRef", "price", "durationMinutes"],
            "properties": {
                "slotId": {"type": "string"},
                "bidderAddress": {"type": "string"},
                "contentRef": {"type": "string"},
                "contentUrl": {"type": "string"},
                "price": {"type": "string"},
                "bidAmount": {"type": "string"},
                "durationMinutes": {"type": "integer"},
                "transactionRef": {"type": "string"}
            }
        },
        "placements.CheckoutPaymentRequest": {
            "type": "object",
            "required": ["slotId", "contentRef", "durationMinutes"],
            "properties": {
                "paymentPayload": {"type": "object"},
                "slotId": {"type": "string"},
                "contentRef": {"type": "string"},
                "contentUrl": {"type": "string"},
                "bidAmount": {"type": "string"},
                "durationMinutes": {"type": "integer"}
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
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Ad Slot Marketplace API",
	Description:      "Publisher ad slots, paid placements and the bid queue.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
