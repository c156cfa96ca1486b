package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API documentation:
// GET /swagger/index.html (Swagger UI) and GET /swagger/doc.json (OpenAPI).
func RegisterSwagger(r gin.IRouter) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Lieux d'Exception API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({ url: '/swagger/doc.json', dom_id: '#swagger-ui' })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "Lieux d'Exception", "version": "v1" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Exchange a Keycloak authorization code or password for site tokens",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": {
          "mode": { "type": "string", "enum": ["auth_code", "password"] },
          "code": { "type": "string" }, "redirect_uri": { "type": "string" },
          "username": { "type": "string" }, "password": { "type": "string" } } } } } },
        "responses": { "200": { "description": "accessToken, refreshToken, expiresIn, user" }, "400": { "description": "invalid request" }, "401": { "description": "login rejected" }, "503": { "description": "keycloak not configured" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Issue a new access token from a refresh token",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refresh_token": { "type": "string" } } } } } },
        "responses": { "200": { "description": "accessToken, expiresIn" }, "401": { "description": "invalid refresh token" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke the refresh token and blacklist the bearer token",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refresh_token": { "type": "string" } } } } } },
        "responses": { "200": { "description": "logged out" } } }
    },
    "/api/consent": {
      "get": { "summary": "Current cookie consent", "responses": { "200": { "description": "set, consent" } } },
      "post": { "summary": "Record cookie consent",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "analytics": { "type": "boolean" }, "marketing": { "type": "boolean" } } } } } },
        "responses": { "200": { "description": "consent cookie set" }, "400": { "description": "invalid request" } } },
      "delete": { "summary": "Withdraw cookie consent", "responses": { "204": { "description": "cookie cleared" } } }
    },
    "/contact": {
      "post": { "summary": "Contact form submission (form encoded)",
        "responses": { "303": { "description": "stored, redirect to /contact?sent=1" }, "400": { "description": "form re-rendered with errors" }, "429": { "description": "too many submissions" } } }
    },
    "/api/admin/me": { "get": { "security": [{ "bearer": [] }], "summary": "Claims of the caller", "responses": { "200": { "description": "claims" } } } },
    "/api/admin/venues": {
      "get": { "security": [{ "bearer": [] }], "summary": "List venues (editor)", "responses": { "200": { "description": "venues" } } },
      "post": { "security": [{ "bearer": [] }], "summary": "Create a venue (editor)", "responses": { "201": { "description": "created" }, "400": { "description": "invalid venue" }, "409": { "description": "slug taken" } } }
    },
    "/api/admin/venues/{id}": {
      "get": { "security": [{ "bearer": [] }], "summary": "Get a venue", "responses": { "200": { "description": "venue" }, "404": { "description": "not found" } } },
      "put": { "security": [{ "bearer": [] }], "summary": "Update a venue", "responses": { "200": { "description": "venue" }, "404": { "description": "not found" } } },
      "delete": { "security": [{ "bearer": [] }], "summary": "Delete a venue", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/admin/pages": { "get": { "security": [{ "bearer": [] }], "summary": "List editable pages", "responses": { "200": { "description": "pages" } } } },
    "/api/admin/pages/{slug}": {
      "get": { "security": [{ "bearer": [] }], "summary": "Page content", "responses": { "200": { "description": "page" }, "404": { "description": "unknown page" } } },
      "put": { "security": [{ "bearer": [] }], "summary": "Save page content", "responses": { "200": { "description": "page" }, "400": { "description": "invalid page" } } }
    },
    "/api/admin/timeline": {
      "get": { "security": [{ "bearer": [] }], "summary": "History timeline", "responses": { "200": { "description": "events" } } },
      "post": { "security": [{ "bearer": [] }], "summary": "Add a timeline event", "responses": { "201": { "description": "created" } } }
    },
    "/api/admin/timeline/{id}": {
      "put": { "security": [{ "bearer": [] }], "summary": "Update a timeline event", "responses": { "200": { "description": "event" } } },
      "delete": { "security": [{ "bearer": [] }], "summary": "Delete a timeline event", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/admin/media": {
      "get": { "security": [{ "bearer": [] }], "summary": "List media, optional ?category=", "responses": { "200": { "description": "items" } } },
      "post": { "security": [{ "bearer": [] }], "summary": "Upload an image (multipart: file, category, venueId, alt)", "responses": { "201": { "description": "item with variants" }, "400": { "description": "unsupported file" }, "413": { "description": "too large" } } }
    },
    "/api/admin/media/{id}": { "delete": { "security": [{ "bearer": [] }], "summary": "Delete an image and its variants", "responses": { "204": { "description": "deleted" } } } },
    "/api/admin/storage": { "get": { "security": [{ "bearer": [] }], "summary": "Browse the object store (?prefix=&after=&limit=)", "responses": { "200": { "description": "prefix, limit, page" } } } },
    "/api/admin/users": { "get": { "security": [{ "bearer": [] }], "summary": "List users (admin)", "responses": { "200": { "description": "users" } } } },
    "/api/admin/users/{sub}/role": { "put": { "security": [{ "bearer": [] }], "summary": "Change a user's role (admin)", "responses": { "200": { "description": "user" }, "400": { "description": "invalid role" } } } },
    "/api/admin/leads": { "get": { "security": [{ "bearer": [] }], "summary": "List leads (admin)", "responses": { "200": { "description": "leads" } } } },
    "/api/admin/leads/{id}": { "get": { "security": [{ "bearer": [] }], "summary": "Get a lead", "responses": { "200": { "description": "lead" }, "404": { "description": "not found" } } } },
    "/api/admin/leads/{id}/status": { "put": { "security": [{ "bearer": [] }], "summary": "Set lead status", "responses": { "200": { "description": "lead" } } } },
    "/api/admin/leads/{id}/sync": { "post": { "security": [{ "bearer": [] }], "summary": "Push one lead to Odoo", "responses": { "200": { "description": "lead" }, "502": { "description": "crm error" }, "503": { "description": "crm not configured" } } } },
    "/api/admin/leads/sync": { "post": { "security": [{ "bearer": [] }], "summary": "Push pending leads to Odoo", "responses": { "200": { "description": "sync report" } } } },
    "/api/admin/audit": { "get": { "security": [{ "bearer": [] }], "summary": "Audit log (admin)", "responses": { "200": { "description": "entries" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
