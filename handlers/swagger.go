package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>gantz API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Mutating /api routes need "Authorization: Bearer <admin access token>".
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "gantz", "version": "v1.0.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } } },
  "paths": {
    "/auth/login": {
      "post": { "summary": "Sign in with email and password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } } }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Sign out; revokes the bearer token when sent", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current viewer {email, admin}; anonymous without a valid token", "responses": { "200": { "description": "viewer" } } }
    },
    "/api/home": {
      "get": { "summary": "Photos and memos of the last days, YouTube embed and links", "responses": { "200": { "description": "landing" } } }
    },
    "/api/photos": {
      "get": { "summary": "Photos newest first", "parameters": [{"name":"page","in":"query"},{"name":"size","in":"query"},{"name":"from","in":"query"},{"name":"to","in":"query"}], "responses": { "200": { "description": "page of photos" } } },
      "post": { "summary": "Upload a photo (admin)", "security": [{"bearer": []}], "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"file":{"type":"string","format":"binary"},"caption":{"type":"string"},"taken_at":{"type":"string","format":"date-time"}}}}}}, "responses": { "201": { "description": "created" }, "409": { "description": "storage key collision" } } }
    },
    "/api/photos/{id}": {
      "get": { "summary": "One photo", "responses": { "200": { "description": "photo" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Edit caption (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete photo (admin)", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/memos": {
      "get": { "summary": "Memos newest first", "responses": { "200": { "description": "memos" } } },
      "post": { "summary": "Write a memo (admin)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" } } }
    },
    "/api/memos/{id}": {
      "get": { "summary": "One memo", "responses": { "200": { "description": "memo" } } },
      "delete": { "summary": "Delete memo and its comments (admin)", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/memos/{id}/comments": {
      "get": { "summary": "Comments oldest first", "responses": { "200": { "description": "comments" } } },
      "post": { "summary": "Comment; anyone, nickname optional", "responses": { "201": { "description": "created" }, "429": { "description": "rate limited" } } }
    },
    "/api/comments/{id}": {
      "delete": { "summary": "Delete comment (admin)", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/people": {
      "get": { "summary": "People oldest first", "responses": { "200": { "description": "people" } } },
      "post": { "summary": "Add a person (admin); multipart with optional avatar", "security": [{"bearer": []}], "responses": { "201": { "description": "created" } } }
    },
    "/api/people/{id}": {
      "get": { "summary": "One person", "responses": { "200": { "description": "person" } } },
      "put": { "summary": "Edit a person (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete a person (admin)", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    }
  }
}`
