// Package docs registers the OpenAPI spec served at /docs/doc.json.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "Minaret"},
        "license": {"name": "MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/qibla": {
            "get": {
                "tags": ["qibla"],
                "summary": "Qibla bearing and distance",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/qibla/compass": {
            "get": {
                "tags": ["qibla"],
                "summary": "Compass alignment to the qibla",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "number", "name": "heading", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/prayers": {
            "get": {
                "tags": ["prayers"],
                "summary": "Prayer timetable with next prayer",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "string", "name": "date", "in": "query"},
                    {"type": "integer", "name": "method", "in": "query"},
                    {"type": "integer", "name": "school", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/calendar": {
            "get": {
                "tags": ["calendar"],
                "summary": "Hijri calendar month",
                "parameters": [
                    {"type": "integer", "name": "month", "in": "query", "required": true},
                    {"type": "integer", "name": "year", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/mosques": {
            "get": {
                "tags": ["mosques"],
                "summary": "Nearby mosques",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "integer", "name": "radius", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/quran": {
            "get": {
                "tags": ["quran"],
                "summary": "Surah list",
                "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/quran/{surah}": {
            "get": {
                "tags": ["quran"],
                "summary": "Surah verse page",
                "parameters": [
                    {"type": "integer", "name": "surah", "in": "path", "required": true},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "reciter", "in": "query"},
                    {"type": "string", "name": "translation", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/hadith/daily": {
            "get": {
                "tags": ["hadith"],
                "summary": "Daily hadith",
                "parameters": [{"type": "string", "name": "book", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/playback": {
            "post": {
                "tags": ["playback"],
                "summary": "Start a playback session",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/playback/{id}": {
            "get": {
                "tags": ["playback"],
                "summary": "Playback session state",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["playback"],
                "summary": "End a playback session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/playback/{id}/seek": {
            "post": {
                "tags": ["playback"],
                "summary": "Seek within the current verse",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "number", "name": "position", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/playback/{id}/{action}": {
            "post": {
                "tags": ["playback"],
                "summary": "Playback control (play, pause, next, previous)",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "action", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/devices": {
            "post": {
                "tags": ["devices"],
                "summary": "Register a device",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/devices/{id}/settings": {
            "get": {
                "tags": ["devices"],
                "summary": "Device prayer settings",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "put": {
                "tags": ["devices"],
                "summary": "Update device prayer settings",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/devices/{id}/reciter": {
            "put": {
                "tags": ["devices"],
                "summary": "Update selected reciter",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/devices/{id}/likes": {
            "get": {
                "tags": ["devices"],
                "summary": "Liked ayahs",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/devices/{id}/likes/{key}": {
            "post": {
                "tags": ["devices"],
                "summary": "Like an ayah",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "key", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request"}}
            },
            "delete": {
                "tags": ["devices"],
                "summary": "Unlike an ayah",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "key", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request"}}
            }
        },
        "/devices/{id}/last-read": {
            "get": {
                "tags": ["devices"],
                "summary": "Last-read position",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "tags": ["devices"],
                "summary": "Update last-read position",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Minaret Data API",
	Description:      "Prayer times, qibla, Quran playback, mosques, and Hijri calendar for the Minaret companion app.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
