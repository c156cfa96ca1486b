// Package site renders the public pages of the venue catalogue.
package site

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/consent"
	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/internal/media"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/internal/venues"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Site holds what the public handlers read from.
type Site struct {
	Name        string
	BaseURL     string
	AnalyticsID string

	Venues  *venues.Service
	Content *content.Service
	Media   *media.Service
	Leads   *leads.Service
	Store   storage.BlobStore

	// ContactLimiter guards POST /contact; nil lets every request through.
	ContactLimiter gin.HandlerFunc

	log *logger.Component
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"eventLabel": leads.EventLabel,
		"year":       func() int { return time.Now().Year() },
		"paragraphs": paragraphs,
		"kindLabel":  kindLabel,
	}).ParseFS(templateFS, "templates/*.html")
}

// Register loads the templates into r and mounts the public routes.
func (s *Site) Register(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	s.log = logger.For("site")

	r.GET("/", s.Home)
	r.GET("/lieux", s.VenueList)
	r.GET("/lieux/:slug", s.VenueDetail)
	r.GET("/mariages", s.Weddings)
	r.GET("/evenements-entreprise", s.Business)
	r.GET("/galerie", s.Gallery)
	r.GET("/histoire", s.History)
	r.GET("/contact", s.ContactForm)
	if s.ContactLimiter != nil {
		r.POST("/contact", s.ContactLimiter, s.ContactSubmit)
	} else {
		r.POST("/contact", s.ContactSubmit)
	}
	r.GET("/mentions-legales", s.Legal)
	r.NoRoute(s.NotFound)
	return nil
}

// render adds the layout values shared by every page. The analytics
// snippet is only emitted when the visitor accepted analytics cookies.
func (s *Site) render(c *gin.Context, status int, tmpl, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	cons, set := consent.FromRequest(c.Request)
	data["SiteName"] = s.Name
	data["BaseURL"] = s.BaseURL
	data["Path"] = c.Request.URL.Path
	data["ConsentSet"] = set
	if set && cons.Analytics && s.AnalyticsID != "" {
		data["AnalyticsID"] = s.AnalyticsID
	}
	metrics.PageRenders.WithLabelValues(page).Inc()
	c.HTML(status, tmpl, data)
}

func (s *Site) fail(c *gin.Context, err error) {
	s.logger().Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	s.render(c, http.StatusInternalServerError, "error.html", "error", gin.H{"Title": "Erreur"})
}

func (s *Site) logger() *logger.Component {
	if s.log == nil {
		s.log = logger.For("site")
	}
	return s.log
}

func (s *Site) page(ctx context.Context, slug string) (*models.PageContent, error) {
	return s.Content.GetPage(ctx, slug)
}

// imageURL resolves a storage key to a browser URL. Absolute URLs pass through.
func (s *Site) imageURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") || strings.HasPrefix(key, "/") {
		return key
	}
	if s.Store == nil {
		return ""
	}
	u, err := s.Store.URL(ctx, key)
	if err != nil {
		s.logger().Warnf("url for %s: %v", key, err)
		return ""
	}
	return u
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func kindLabel(kind string) string {
	switch kind {
	case models.KindChateau:
		return "Château"
	case models.KindManoir:
		return "Manoir"
	case models.KindDomaine:
		return "Domaine"
	case models.KindDome:
		return "Dôme"
	}
	return "Lieu"
}
