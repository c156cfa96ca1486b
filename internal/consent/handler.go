package consent

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type updateRequest struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

// Handler serves /api/consent.
type Handler struct {
	Secure bool
	Now    func() time.Time
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/api/consent", h.Get)
	r.POST("/api/consent", h.Update)
	r.DELETE("/api/consent", h.Clear)
}

func (h *Handler) Get(c *gin.Context) {
	cur, ok := FromRequest(c.Request)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"set": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"set": true, "consent": cur})
}

func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	cons := New(req.Analytics, req.Marketing, now())
	ck, err := Cookie(cons, h.Secure)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode consent"})
		return
	}
	http.SetCookie(c.Writer, ck)
	c.JSON(http.StatusOK, gin.H{"set": true, "consent": cons})
}

func (h *Handler) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, ExpiredCookie(h.Secure))
	c.Status(http.StatusNoContent)
}
