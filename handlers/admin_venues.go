package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/venues"
)

// ListVenues returns every venue, drafts included.
func (h *AdminHandler) ListVenues(c *gin.Context) {
	list, err := h.Venues.List(c.Request.Context(), venues.Filter{
		EventType: c.Query("type"),
		Region:    c.Query("region"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venues": list})
}

func (h *AdminHandler) GetVenue(c *gin.Context) {
	v, err := h.Venues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if v == nil {
		respondError(c, venues.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *AdminHandler) CreateVenue(c *gin.Context) {
	var v models.Venue
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.Venues.Create(c.Request.Context(), &v)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "venue", created.ID, models.ActionCreate, gin.H{"slug": created.Slug, "name": created.Name})
	c.JSON(http.StatusCreated, created)
}

func (h *AdminHandler) UpdateVenue(c *gin.Context) {
	var v models.Venue
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.Venues.Update(c.Request.Context(), c.Param("id"), &v)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "venue", updated.ID, models.ActionUpdate, gin.H{"slug": updated.Slug, "published": updated.Published})
	c.JSON(http.StatusOK, updated)
}

func (h *AdminHandler) DeleteVenue(c *gin.Context) {
	id := c.Param("id")
	if err := h.Venues.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "venue", id, models.ActionDelete, nil)
	c.Status(http.StatusNoContent)
}
