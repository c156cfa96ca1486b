package site

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/venues"
)

// venueView is a venue with its image keys resolved to URLs.
type venueView struct {
	*models.Venue
	CoverURL   string
	GalleryURL []string
}

func (s *Site) views(ctx context.Context, list []*models.Venue) []venueView {
	out := make([]venueView, 0, len(list))
	for _, v := range list {
		out = append(out, s.view(ctx, v))
	}
	return out
}

func (s *Site) view(ctx context.Context, v *models.Venue) venueView {
	vv := venueView{Venue: v}
	cover := v.CoverImage
	if cover == "" && len(v.Images) > 0 {
		cover = v.Images[0]
	}
	vv.CoverURL = s.imageURL(ctx, cover)
	for _, k := range v.Images {
		if u := s.imageURL(ctx, k); u != "" {
			vv.GalleryURL = append(vv.GalleryURL, u)
		}
	}
	return vv
}

func (s *Site) Home(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.page(ctx, content.PageHome)
	if err != nil {
		s.fail(c, err)
		return
	}
	featured, err := s.Venues.List(ctx, venues.Filter{PublishedOnly: true, FeaturedOnly: true})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "home.html", content.PageHome, gin.H{
		"Page":     p,
		"Title":    p.SEO.Title,
		"Featured": s.views(ctx, featured),
	})
}

// VenueList filters with ?type=wedding|b2b, ?region= and ?min= (seated guests).
func (s *Site) VenueList(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.page(ctx, content.PageVenues)
	if err != nil {
		s.fail(c, err)
		return
	}
	f := venues.Filter{
		PublishedOnly: true,
		EventType:     c.Query("type"),
		Region:        c.Query("region"),
	}
	if min, err := strconv.Atoi(c.Query("min")); err == nil && min > 0 {
		f.MinSeated = min
	}
	list, err := s.Venues.List(ctx, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	regions, err := s.Venues.Regions(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "venues.html", content.PageVenues, gin.H{
		"Page":    p,
		"Title":   p.SEO.Title,
		"Venues":  s.views(ctx, list),
		"Regions": regions,
		"Filter":  f,
	})
}

func (s *Site) VenueDetail(c *gin.Context) {
	ctx := c.Request.Context()
	v, err := s.Venues.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if v == nil || !v.Published {
		s.NotFound(c)
		return
	}
	s.render(c, http.StatusOK, "venue.html", "venue", gin.H{
		"Title": v.Name + " | " + s.Name,
		"Venue": s.view(ctx, v),
	})
}

// eventPage renders the weddings and business pages, which share a layout.
func (s *Site) eventPage(c *gin.Context, slug, eventType string) {
	ctx := c.Request.Context()
	p, err := s.page(ctx, slug)
	if err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.Venues.List(ctx, venues.Filter{PublishedOnly: true, EventType: eventType})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "event.html", slug, gin.H{
		"Page":      p,
		"Title":     p.SEO.Title,
		"Venues":    s.views(ctx, list),
		"EventType": eventType,
	})
}

func (s *Site) Weddings(c *gin.Context) { s.eventPage(c, content.PageWeddings, models.EventWedding) }

func (s *Site) Business(c *gin.Context) { s.eventPage(c, content.PageB2B, models.EventB2B) }

func (s *Site) Gallery(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.page(ctx, content.PageGallery)
	if err != nil {
		s.fail(c, err)
		return
	}
	var items []*models.MediaItem
	if s.Media != nil {
		if items, err = s.Media.List(ctx, models.MediaGallery); err != nil {
			s.fail(c, err)
			return
		}
	}
	s.render(c, http.StatusOK, "gallery.html", content.PageGallery, gin.H{
		"Page":  p,
		"Title": p.SEO.Title,
		"Items": items,
	})
}

func (s *Site) History(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.page(ctx, content.PageHistory)
	if err != nil {
		s.fail(c, err)
		return
	}
	events, err := s.Content.ListTimeline(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "history.html", content.PageHistory, gin.H{
		"Page":   p,
		"Title":  p.SEO.Title,
		"Events": events,
	})
}

func (s *Site) Legal(c *gin.Context) {
	p, err := s.page(c.Request.Context(), content.PageLegal)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "legal.html", content.PageLegal, gin.H{"Page": p, "Title": p.SEO.Title})
}

func (s *Site) NotFound(c *gin.Context) {
	s.render(c, http.StatusNotFound, "notfound.html", "notfound", gin.H{"Title": "Page introuvable"})
}
