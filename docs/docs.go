// Package docs registers the OpenAPI description served under /swagger/.
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
        "/events": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "List my events", "produces": ["application/json"], "responses": {"200": {"description": "data contains items and pagination"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Create a single event", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "data contains the created event"}}}
        },
        "/events/recurring": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Create a recurring event series", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "data contains the group and its occurrences"}}}
        },
        "/events/{eventID}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Get an event by ID", "parameters": [{"type": "string", "name": "eventID", "in": "path", "required": true}], "responses": {"200": {"description": "data contains the event"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Update an event or part of its series", "parameters": [{"type": "string", "name": "eventID", "in": "path", "required": true}, {"type": "string", "name": "scope", "in": "query", "enum": ["this_only", "this_and_following", "all"]}], "responses": {"200": {"description": "data contains the updated occurrences"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Delete an event or part of its series", "parameters": [{"type": "string", "name": "eventID", "in": "path", "required": true}, {"type": "string", "name": "scope", "in": "query", "enum": ["this_only", "this_and_following", "all"]}], "responses": {"200": {"description": "data contains the deleted ids"}}}
        },
        "/series/{groupID}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["series"], "summary": "List the occurrences of a series", "parameters": [{"type": "string", "name": "groupID", "in": "path", "required": true}], "responses": {"200": {"description": "data contains the occurrences"}}}
        },
        "/series/{groupID}/calendar.ics": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["series"], "summary": "Export a series as iCalendar", "produces": ["text/calendar"], "parameters": [{"type": "string", "name": "groupID", "in": "path", "required": true}], "responses": {"200": {"description": "text/calendar document"}}}
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
	Title:            "VolunteerHub API",
	Description:      "Volunteering events with recurring series and scoped series edits.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
