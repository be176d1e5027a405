package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/service"
	"github.com/gin-gonic/gin"
)

type PeopleHandler struct {
	people *service.People
}

func NewPeopleHandler(p *service.People) *PeopleHandler {
	return &PeopleHandler{people: p}
}

func (h *PeopleHandler) Register(rg *gin.RouterGroup, admin ...gin.HandlerFunc) {
	rg.GET("/people", h.List)
	rg.GET("/people/:id", h.Get)
	rg.POST("/people", chain(admin, h.Create)...)
	rg.PUT("/people/:id", chain(admin, h.Update)...)
	rg.DELETE("/people/:id", chain(admin, h.Delete)...)
}

func (h *PeopleHandler) List(c *gin.Context) {
	items, err := h.people.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "viewer": viewerOf(c)})
}

func (h *PeopleHandler) Get(c *gin.Context) {
	p, err := h.people.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type personBody struct {
	Name   string         `json:"name"`
	MBTI   string         `json:"mbti"`
	Bio    string         `json:"bio"`
	Extras []models.Extra `json:"extras"`
}

// personInput reads a JSON body or a multipart form whose "extras" field holds a JSON
// array of {key, value} and whose optional "avatar" field holds the picture.
func personInput(c *gin.Context) (service.PersonInput, func(), bool) {
	noop := func() {}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var b personBody
		if err := c.ShouldBindJSON(&b); err != nil {
			badRequest(c, err.Error())
			return service.PersonInput{}, noop, false
		}
		return service.PersonInput{Name: b.Name, MBTI: b.MBTI, Bio: b.Bio, Extras: b.Extras}, noop, true
	}
	in := service.PersonInput{
		Name: c.PostForm("name"),
		MBTI: c.PostForm("mbti"),
		Bio:  c.PostForm("bio"),
	}
	if raw := c.PostForm("extras"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Extras); err != nil {
			badRequest(c, "extras must be a JSON array of {key, value}")
			return service.PersonInput{}, noop, false
		}
	}
	avatar, done, err := formFile(c, "avatar")
	if err != nil {
		badRequest(c, err.Error())
		return service.PersonInput{}, noop, false
	}
	in.Avatar = avatar
	return in, done, true
}

func (h *PeopleHandler) Create(c *gin.Context) {
	in, done, ok := personInput(c)
	if !ok {
		return
	}
	defer done()
	p, err := h.people.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PeopleHandler) Update(c *gin.Context) {
	in, done, ok := personInput(c)
	if !ok {
		return
	}
	defer done()
	p, err := h.people.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PeopleHandler) Delete(c *gin.Context) {
	if err := h.people.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
