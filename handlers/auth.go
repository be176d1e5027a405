package handlers

import (
	"context"
	"net/http"

	"github.com/gantzhq/gantz/internal/identity"
	"github.com/gantzhq/gantz/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// LoginRequest is a password sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Authenticator is the identity service as the auth routes use it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*identity.Grant, error)
	Refresh(ctx context.Context, refresh string) (*identity.Grant, error)
	SignOut(ctx context.Context, access, refresh string) error
}

// AuthHandler holds dependencies
type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(a Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

// Register routes under /auth; limit guards the login route and may be nil.
func (h *AuthHandler) Register(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	a := rg.Group("/auth")
	if limit != nil {
		a.POST("/login", limit, h.Login)
	} else {
		a.POST("/login", h.Login)
	}
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// Login signs in with email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Logout drops the refresh session and, when a bearer token is sent, revokes it.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	access, _ := middleware.BearerToken(c)
	if err := h.auth.SignOut(c.Request.Context(), access, req.RefreshToken); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me reports who the caller is; anonymous callers get an empty email.
func Me(c *gin.Context) {
	c.JSON(http.StatusOK, viewerOf(c))
}
