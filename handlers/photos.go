package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gantzhq/gantz/internal/service"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gantzhq/gantz/internal/upload"
	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

type PhotoHandler struct {
	photos   *service.Photos
	pageSize int
}

func NewPhotoHandler(p *service.Photos, pageSize int) *PhotoHandler {
	return &PhotoHandler{photos: p, pageSize: pageSize}
}

func (h *PhotoHandler) Register(rg *gin.RouterGroup, admin ...gin.HandlerFunc) {
	rg.GET("/photos", h.List)
	rg.GET("/photos/:id", h.Get)
	rg.POST("/photos", chain(admin, h.Create)...)
	rg.PATCH("/photos/:id", chain(admin, h.UpdateCaption)...)
	rg.DELETE("/photos/:id", chain(admin, h.Delete)...)
}

// pageRange reads ?from&to (inclusive rows) or ?page&size.
func pageRange(c *gin.Context, defaultSize int) (store.Range, bool) {
	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		f, err1 := strconv.Atoi(from)
		t, err2 := strconv.Atoi(to)
		if err1 != nil || err2 != nil || f < 0 || t < f || t-f >= maxPageSize {
			badRequest(c, "from and to must be row indexes with from <= to")
			return store.Range{}, false
		}
		return store.Range{From: f, To: t}, true
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		badRequest(c, "page must be a non-negative integer")
		return store.Range{}, false
	}
	size := defaultSize
	if s := c.Query("size"); s != "" {
		if size, err = strconv.Atoi(s); err != nil || size <= 0 || size > maxPageSize {
			badRequest(c, "size must be between 1 and 100")
			return store.Range{}, false
		}
	}
	if page > store.MaxPage(size) {
		badRequest(c, "page is out of range")
		return store.Range{}, false
	}
	return store.PageRange(page, size), true
}

// List returns one page, newest first.
func (h *PhotoHandler) List(c *gin.Context) {
	r, ok := pageRange(c, h.pageSize)
	if !ok {
		return
	}
	items, err := h.photos.Range(c.Request.Context(), r)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"from":     r.From,
		"to":       r.To,
		"has_more": len(items) == r.Len(),
		"viewer":   viewerOf(c),
	})
}

func (h *PhotoHandler) Get(c *gin.Context) {
	p, err := h.photos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// formFile opens an optional multipart file field.
func formFile(c *gin.Context, field string) (*upload.File, func(), error) {
	fh, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*upload.File, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &upload.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

// Create takes a multipart form: file (required), caption, taken_at (RFC 3339).
func (h *PhotoHandler) Create(c *gin.Context) {
	f, done, err := formFile(c, "file")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer done()
	var takenAt *time.Time
	if v := c.PostForm("taken_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "taken_at must be RFC 3339")
			return
		}
		takenAt = &t
	}
	p, err := h.photos.Create(c.Request.Context(), f, c.PostForm("caption"), takenAt)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PhotoHandler) UpdateCaption(c *gin.Context) {
	var req struct {
		Caption string `json:"caption"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.photos.UpdateCaption(c.Request.Context(), c.Param("id"), req.Caption)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
