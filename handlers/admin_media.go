package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/media"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/pkg/middleware"
)

func (h *AdminHandler) ListMedia(c *gin.Context) {
	items, err := h.Media.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// UploadMedia accepts a multipart form with a "file" part and the
// category, venueId and alt fields.
func (h *AdminHandler) UploadMedia(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	category := c.PostForm("category")
	if category == "" {
		category = models.MediaGallery
	}
	item, err := h.Media.Upload(c.Request.Context(), media.UploadInput{
		Filename: fh.Filename,
		Body:     f,
		Category: category,
		VenueID:  c.PostForm("venueId"),
		Alt:      c.PostForm("alt"),
		By:       middleware.Subject(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "media", item.ID, models.ActionCreate, gin.H{"key": item.Key, "category": item.Category})
	c.JSON(http.StatusCreated, item)
}

func (h *AdminHandler) DeleteMedia(c *gin.Context) {
	id := c.Param("id")
	if err := h.Media.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "media", id, models.ActionDelete, nil)
	c.Status(http.StatusNoContent)
}

// BrowseStorage lists raw objects page by page: ?prefix=&after=&limit=.
func (h *AdminHandler) BrowseStorage(c *gin.Context) {
	prefix, err := storage.CleanKey(c.Query("prefix"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	after, err := storage.CleanKey(c.Query("after"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := storage.ClampLimit(queryInt(c, "limit", 0))
	page, err := h.Store.List(c.Request.Context(), prefix, after, limit)
	if err != nil {
		respondError(c, storage.BackendError("browse", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"prefix": prefix, "limit": limit, "page": page})
}
