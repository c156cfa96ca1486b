package site

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/venues"
)

// contactForm mirrors the fields of templates/contact.html. Website is a
// honeypot hidden from humans.
type contactForm struct {
	Name      string `form:"name"`
	Email     string `form:"email"`
	Phone     string `form:"phone"`
	Company   string `form:"company"`
	EventType string `form:"event_type"`
	EventDate string `form:"event_date"`
	Guests    string `form:"guests"`
	Venue     string `form:"venue"`
	Message   string `form:"message"`
	Consent   string `form:"consent"`
	Website   string `form:"website"`
}

var problemLabels = map[string]string{
	"name is required":          "Merci d'indiquer votre nom.",
	"a valid email is required": "Merci d'indiquer une adresse e-mail valide.",
	"unknown event type":        "Type d'événement inconnu.",
	"guests must be positive":   "Le nombre d'invités doit être positif.",
	"consent is required":       "Merci d'accepter d'être recontacté.",
}

// ContactForm shows the form. ?lieu=<slug> preselects a venue and ?sent=1
// shows the confirmation.
func (s *Site) ContactForm(c *gin.Context) {
	form := contactForm{Venue: c.Query("lieu"), EventType: c.Query("type")}
	s.renderContact(c, http.StatusOK, form, nil, c.Query("sent") == "1")
}

func (s *Site) renderContact(c *gin.Context, status int, form contactForm, problems []string, sent bool) {
	ctx := c.Request.Context()
	p, err := s.page(ctx, content.PageContact)
	if err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.Venues.List(ctx, venues.Filter{PublishedOnly: true})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, status, "contact.html", content.PageContact, gin.H{
		"Page":     p,
		"Title":    p.SEO.Title,
		"Form":     form,
		"Problems": problems,
		"Sent":     sent,
		"Venues":   list,
		"EventTypes": []string{
			models.EventWedding, models.EventB2B, models.EventPrivate, models.EventOther,
		},
	})
}

// ContactSubmit stores the lead and redirects (303) to the confirmation.
// Invalid input re-renders the form with 400.
func (s *Site) ContactSubmit(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderContact(c, http.StatusBadRequest, form, []string{"Formulaire invalide."}, false)
		return
	}
	if strings.TrimSpace(form.Website) != "" {
		s.logger().Infof("honeypot filled from %s; dropping submission", c.ClientIP())
		c.Redirect(http.StatusSeeOther, "/contact?sent=1")
		return
	}

	lead := &models.Lead{
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
		Company:   form.Company,
		EventType: form.EventType,
		EventDate: form.EventDate,
		Message:   form.Message,
		Consent:   form.Consent == "on" || form.Consent == "true" || form.Consent == "1",
		Source:    "contact-form",
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	var problems []string
	if g := strings.TrimSpace(form.Guests); g != "" {
		n, ok := parseGuests(g)
		if !ok {
			problems = append(problems, "Le nombre d'invités doit être un nombre positif.")
		}
		lead.Guests = n
	}
	if form.Venue != "" {
		v, err := s.Venues.GetBySlug(c.Request.Context(), form.Venue)
		if err != nil {
			s.fail(c, err)
			return
		}
		if v != nil && v.Published {
			lead.VenueID = v.ID
			lead.VenueName = v.Name
		}
	}
	if len(problems) > 0 {
		s.renderContact(c, http.StatusBadRequest, form, problems, false)
		return
	}

	if _, err := s.Leads.Submit(c.Request.Context(), lead); err != nil {
		var ve *leads.ValidationError
		if errors.As(err, &ve) {
			s.renderContact(c, http.StatusBadRequest, form, translate(ve.Problems), false)
			return
		}
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/contact?sent=1")
}

// ContactRejected renders the form again, filled in, when the contact
// limiter refuses a submission. It has the middleware.Rejecter signature.
func (s *Site) ContactRejected(c *gin.Context, retryAfter time.Duration) {
	var form contactForm
	_ = c.ShouldBind(&form)
	form.Website = ""
	minutes := int(math.Ceil(retryAfter.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	msg := fmt.Sprintf("Trop de demandes envoyées depuis votre connexion. Merci de réessayer dans %d minute(s).", minutes)
	s.logger().Infof("contact limit reached for %s, retry in %s", c.ClientIP(), retryAfter.Round(time.Second))
	s.renderContact(c, http.StatusTooManyRequests, form, []string{msg}, false)
}

func parseGuests(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 100000 {
		return 0, false
	}
	return n, true
}

func translate(problems []string) []string {
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		if fr, ok := problemLabels[p]; ok {
			out = append(out, fr)
			continue
		}
		out = append(out, p)
	}
	return out
}
