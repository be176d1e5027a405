package handlers

import (
	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/internal/service"
	"github.com/gantzhq/gantz/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Deps is everything the API routes need. Auth, Blobs and the limiters are optional.
type Deps struct {
	Gate        *gate.Gate
	Verifier    middleware.Verifier
	Revocations middleware.Revocations
	Auth        Authenticator

	Photos *service.Photos
	Memos  *service.Memos
	People *service.People
	Home   *service.Home

	Blobs        BlobReader
	CacheSeconds int
	PageSize     int

	LoginLimit   gin.HandlerFunc
	CommentLimit gin.HandlerFunc
}

// RegisterRoutes mounts the site API on r. Every create, update and delete of photos,
// memos, people and comments requires an admin bearer token; reads and comment
// posting are public.
func RegisterRoutes(r *gin.Engine, d Deps) {
	admin := []gin.HandlerFunc{
		middleware.AuthMiddleware(d.Verifier, d.Revocations),
		middleware.RequireAdmin(d.Gate.IsAdmin),
	}

	if d.Auth != nil {
		NewAuthHandler(d.Auth).Register(r.Group("/"), d.LoginLimit)
	}

	api := r.Group("/api", ResolveViewer(d.Gate))
	api.GET("/v1/me", Me)
	api.GET("/home", HomeHandler(d.Home))
	NewPhotoHandler(d.Photos, d.PageSize).Register(api, admin...)
	NewMemoHandler(d.Memos).Register(api, d.CommentLimit, admin...)
	NewPeopleHandler(d.People).Register(api, admin...)

	if d.Blobs != nil {
		r.GET("/media/*key", MediaHandler(d.Blobs, d.CacheSeconds))
	}
	RegisterSwagger(r)
}
