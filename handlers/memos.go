package handlers

import (
	"net/http"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/service"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gin-gonic/gin"
)

type MemoHandler struct {
	memos *service.Memos
}

func NewMemoHandler(m *service.Memos) *MemoHandler {
	return &MemoHandler{memos: m}
}

// Register wires the board. limit guards comment posting and may be nil.
func (h *MemoHandler) Register(rg *gin.RouterGroup, limit gin.HandlerFunc, admin ...gin.HandlerFunc) {
	rg.GET("/memos", h.List)
	rg.GET("/memos/:id", h.Get)
	rg.POST("/memos", chain(admin, h.Create)...)
	rg.DELETE("/memos/:id", chain(admin, h.Delete)...)
	rg.GET("/memos/:id/comments", h.Comments)
	if limit != nil {
		rg.POST("/memos/:id/comments", limit, h.PostComment)
	} else {
		rg.POST("/memos/:id/comments", h.PostComment)
	}
	rg.DELETE("/comments/:id", chain(admin, h.DeleteComment)...)
}

// List returns memos newest first; page/size or from/to narrow it.
func (h *MemoHandler) List(c *gin.Context) {
	var r *store.Range
	if c.Query("page") != "" || c.Query("size") != "" || c.Query("from") != "" {
		pr, ok := pageRange(c, maxPageSize)
		if !ok {
			return
		}
		r = &pr
	}
	items, err := h.memos.List(c.Request.Context(), r)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "viewer": viewerOf(c)})
}

func (h *MemoHandler) Get(c *gin.Context) {
	m, err := h.memos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MemoHandler) Create(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.memos.Create(c.Request.Context(), req.Title, req.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MemoHandler) Delete(c *gin.Context) {
	if err := h.memos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// commentView adds the display name so clients need not know the placeholder.
type commentView struct {
	models.Comment
	DisplayName string `json:"display_name"`
}

func toCommentView(c models.Comment) commentView {
	return commentView{Comment: c, DisplayName: c.DisplayName()}
}

func (h *MemoHandler) Comments(c *gin.Context) {
	cs, err := h.memos.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	items := make([]commentView, 0, len(cs))
	for _, cm := range cs {
		items = append(items, toCommentView(cm))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "viewer": viewerOf(c)})
}

// PostComment is open to anyone.
func (h *MemoHandler) PostComment(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname"`
		Body     string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cm, err := h.memos.PostComment(c.Request.Context(), c.Param("id"), req.Nickname, req.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCommentView(*cm))
}

func (h *MemoHandler) DeleteComment(c *gin.Context) {
	if err := h.memos.DeleteComment(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
