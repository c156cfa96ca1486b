package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/pkg/middleware"
)

func (h *AdminHandler) ListPages(c *gin.Context) {
	pages, err := h.Content.ListPages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

func (h *AdminHandler) GetPage(c *gin.Context) {
	p, err := h.Content.GetPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SavePage upserts the page named in the path; a slug in the body is ignored.
func (h *AdminHandler) SavePage(c *gin.Context) {
	var p models.PageContent
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Slug = c.Param("slug")
	saved, err := h.Content.SavePage(c.Request.Context(), &p, middleware.Subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "page", saved.Slug, models.ActionUpdate, gin.H{"title": saved.Title, "sections": len(saved.Sections)})
	c.JSON(http.StatusOK, saved)
}

func (h *AdminHandler) ListTimeline(c *gin.Context) {
	list, err := h.Content.ListTimeline(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

func (h *AdminHandler) CreateEvent(c *gin.Context) {
	var e models.TimelineEvent
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.Content.CreateEvent(c.Request.Context(), &e)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "timeline", created.ID, models.ActionCreate, gin.H{"year": created.Year, "title": created.Title})
	c.JSON(http.StatusCreated, created)
}

func (h *AdminHandler) UpdateEvent(c *gin.Context) {
	var e models.TimelineEvent
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.Content.UpdateEvent(c.Request.Context(), c.Param("id"), &e)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "timeline", updated.ID, models.ActionUpdate, gin.H{"year": updated.Year, "title": updated.Title})
	c.JSON(http.StatusOK, updated)
}

func (h *AdminHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	if err := h.Content.DeleteEvent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "timeline", id, models.ActionDelete, nil)
	c.Status(http.StatusNoContent)
}
