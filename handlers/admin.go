package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/audit"
	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/internal/media"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/internal/users"
	"github.com/lieuxdexception/site/internal/venues"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/middleware"
)

// AdminHandler serves the back-office JSON API under /api/admin.
type AdminHandler struct {
	Venues  *venues.Service
	Content *content.Service
	Media   *media.Service
	Store   storage.BlobStore
	Leads   *leads.Service
	Users   *users.Service
	Audit   audit.Recorder
}

// Register mounts the admin routes on rg. auth must verify the bearer token
// and populate the claims used by RequireRole.
func (h *AdminHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	a := rg.Group("/api/admin", auth)
	a.GET("/me", h.Me)

	ed := a.Group("", middleware.RequireRole(models.RoleAdmin, models.RoleEditor))
	ed.GET("/venues", h.ListVenues)
	ed.POST("/venues", h.CreateVenue)
	ed.GET("/venues/:id", h.GetVenue)
	ed.PUT("/venues/:id", h.UpdateVenue)
	ed.DELETE("/venues/:id", h.DeleteVenue)

	ed.GET("/pages", h.ListPages)
	ed.GET("/pages/:slug", h.GetPage)
	ed.PUT("/pages/:slug", h.SavePage)

	ed.GET("/timeline", h.ListTimeline)
	ed.POST("/timeline", h.CreateEvent)
	ed.PUT("/timeline/:id", h.UpdateEvent)
	ed.DELETE("/timeline/:id", h.DeleteEvent)

	ed.GET("/media", h.ListMedia)
	ed.POST("/media", h.UploadMedia)
	ed.DELETE("/media/:id", h.DeleteMedia)
	ed.GET("/storage", h.BrowseStorage)

	ad := a.Group("", middleware.RequireRole(models.RoleAdmin))
	ad.GET("/users", h.ListUsers)
	ad.PUT("/users/:sub/role", h.SetUserRole)
	ad.GET("/leads", h.ListLeads)
	ad.GET("/leads/:id", h.GetLead)
	ad.PUT("/leads/:id/status", h.UpdateLeadStatus)
	ad.POST("/leads/:id/sync", h.SyncLead)
	ad.POST("/leads/sync", h.SyncPendingLeads)
	ad.GET("/audit", h.ListAudit)
}

// Me returns the caller's claims.
func (h *AdminHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"claims": middleware.ClaimsFrom(c)})
}

func (h *AdminHandler) record(c *gin.Context, entity, id, action string, data any) {
	audit.Safe(c.Request.Context(), h.Audit, audit.Entry{
		Entity:      entity,
		EntityID:    id,
		Action:      action,
		PerformedBy: middleware.Subject(c),
		Data:        data,
	})
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, venues.ErrNotFound),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, content.ErrUnknownPage),
		errors.Is(err, media.ErrNotFound),
		errors.Is(err, leads.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, venues.ErrInvalidVenue),
		errors.Is(err, content.ErrInvalidPage),
		errors.Is(err, content.ErrInvalidEvent),
		errors.Is(err, media.ErrInvalidCategory),
		errors.Is(err, media.ErrUnsupportedType),
		errors.Is(err, leads.ErrInvalidStatus),
		errors.Is(err, users.ErrInvalidRole):
		status = http.StatusBadRequest
	case errors.Is(err, media.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, venues.ErrSlugTaken):
		status = http.StatusConflict
	case errors.Is(err, leads.ErrCRMDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, leads.ErrSyncInProgress):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrBackend):
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": storage.ErrBackend.Error()})
		return
	}
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
