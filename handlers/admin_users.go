package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/audit"
	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/pkg/middleware"
)

func (h *AdminHandler) ListUsers(c *gin.Context) {
	list, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// SetUserRole changes a user's role. Admins cannot demote themselves.
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub := c.Param("sub")
	if sub == middleware.Subject(c) && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot remove your own admin role"})
		return
	}
	u, err := h.Users.SetRole(c.Request.Context(), sub, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "user", sub, models.ActionRole, gin.H{"role": u.Role})
	c.JSON(http.StatusOK, u)
}

// ListLeads supports ?status=, ?sync= and ?limit=.
func (h *AdminHandler) ListLeads(c *gin.Context) {
	list, err := h.Leads.List(c.Request.Context(), leads.Filter{
		Status:     c.Query("status"),
		SyncStatus: c.Query("sync"),
		Limit:      queryInt(c, "limit", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": list})
}

func (h *AdminHandler) GetLead(c *gin.Context) {
	l, err := h.Leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if l == nil {
		respondError(c, leads.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *AdminHandler) UpdateLeadStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Leads.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "lead", l.ID, models.ActionUpdate, gin.H{"status": l.Status})
	c.JSON(http.StatusOK, l)
}

// SyncLead pushes one lead to the CRM now. A CRM failure answers 502 with
// the lead and its recorded error.
func (h *AdminHandler) SyncLead(c *gin.Context) {
	l, err := h.Leads.Sync(c.Request.Context(), c.Param("id"))
	if err != nil && (l == nil || errors.Is(err, leads.ErrSyncInProgress)) {
		respondError(c, err)
		return
	}
	h.record(c, "lead", l.ID, models.ActionSync, gin.H{"status": l.Sync.Status, "odooId": l.Sync.OdooID})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "crm sync failed", "lead": l})
		return
	}
	c.JSON(http.StatusOK, l)
}

// SyncPendingLeads runs one retry batch (?limit=, default 100).
func (h *AdminHandler) SyncPendingLeads(c *gin.Context) {
	rep, err := h.Leads.SyncPending(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "lead", "*", models.ActionSync, rep)
	c.JSON(http.StatusOK, rep)
}

// ListAudit supports ?entity= and ?limit=.
func (h *AdminHandler) ListAudit(c *gin.Context) {
	list, err := h.Audit.List(c.Request.Context(), audit.Filter{
		Entity: c.Query("entity"),
		Limit:  queryInt(c, "limit", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": list})
}
