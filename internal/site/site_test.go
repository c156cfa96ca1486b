package site

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/consent"
	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/images"
	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/internal/media"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/internal/venues"
	"github.com/lieuxdexception/site/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	site   *Site
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore("http://cdn.test")
	cr := content.NewMemoryRepo()
	s := &Site{
		Name:        "Lieux d'Exception",
		BaseURL:     "https://lieux.example",
		AnalyticsID: "G-TEST123",
		Venues:      venues.NewService(venues.NewMemoryRepo()),
		Content:     content.NewService(cr, cr),
		Media:       media.NewService(media.NewMemoryRepo(), store, []images.Preset{{Name: "medium", Width: 32, Quality: 70}}, 0),
		Leads:       leads.NewService(leads.NewMemoryRepo(), leads.Options{}),
		Store:       store,
	}
	r := gin.New()
	require.NoError(t, s.Register(r))
	return &fixture{site: s, router: r}
}

func (f *fixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) venue(t *testing.T, name string, published bool, types ...string) *models.Venue {
	t.Helper()
	v, err := f.site.Venues.Create(context.Background(), &models.Venue{
		Name:       name,
		Region:     "Normandie",
		EventTypes: types,
		Published:  published,
		Featured:   true,
		Capacity:   models.Capacity{Seated: 150},
		CoverImage: "venues/" + venues.Slugify(name) + ".jpg",
	})
	require.NoError(t, err)
	return v
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)
	for _, name := range []string{"home.html", "venues.html", "venue.html", "event.html", "gallery.html", "history.html", "contact.html", "legal.html", "notfound.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestHome_RendersDefaultsOnEmptyDatabase(t *testing.T) {
	f := newFixture(t)
	w := f.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Châteaux, manoirs et domaines")
	assert.Contains(t, w.Body.String(), "data-consent-banner")
}

func TestHome_ListsFeaturedPublishedVenues(t *testing.T) {
	f := newFixture(t)
	f.venue(t, "Château de Brécy", true, models.EventWedding)
	f.venue(t, "Manoir Caché", false, models.EventWedding)

	body := f.get("/").Body.String()
	assert.Contains(t, body, "Château de Brécy")
	assert.Contains(t, body, "http://cdn.test/venues/chateau-de-brecy.jpg")
	assert.NotContains(t, body, "Manoir Caché")
}

func TestVenueList_Filters(t *testing.T) {
	f := newFixture(t)
	f.venue(t, "Château Mariage", true, models.EventWedding)
	f.venue(t, "Domaine Séminaire", true, models.EventB2B)

	body := f.get("/lieux?type=b2b").Body.String()
	assert.Contains(t, body, "Domaine Séminaire")
	assert.NotContains(t, body, "Château Mariage")

	body = f.get("/lieux?min=500").Body.String()
	assert.Contains(t, body, "Aucun lieu")
}

func TestVenueDetail(t *testing.T) {
	f := newFixture(t)
	v := f.venue(t, "Château Ouvert", true, models.EventWedding)
	hidden := f.venue(t, "Château Brouillon", false)

	w := f.get("/lieux/" + v.Slug)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/contact?lieu="+v.Slug)
	assert.Contains(t, w.Body.String(), "Mariage")

	assert.Equal(t, http.StatusNotFound, f.get("/lieux/"+hidden.Slug).Code)
	assert.Equal(t, http.StatusNotFound, f.get("/lieux/inconnu").Code)
	assert.Equal(t, http.StatusNotFound, f.get("/nulle-part").Code)
}

func TestEventPages(t *testing.T) {
	f := newFixture(t)
	f.venue(t, "Château Mariage", true, models.EventWedding)
	f.venue(t, "Domaine Séminaire", true, models.EventB2B)

	body := f.get("/mariages").Body.String()
	assert.Contains(t, body, "Château Mariage")
	assert.NotContains(t, body, "Domaine Séminaire")

	body = f.get("/evenements-entreprise").Body.String()
	assert.Contains(t, body, "Domaine Séminaire")
	assert.NotContains(t, body, "Château Mariage")
}

func TestHistory_TimelineOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, e := range []models.TimelineEvent{{Year: 1920, Title: "Restauration"}, {Year: 1650, Title: "Construction"}} {
		e := e
		_, err := f.site.Content.CreateEvent(ctx, &e)
		require.NoError(t, err)
	}
	body := f.get("/histoire").Body.String()
	assert.Less(t, strings.Index(body, "Construction"), strings.Index(body, "Restauration"))
}

func TestGallery_ShowsUploadedItems(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48))))
	item, err := f.site.Media.Upload(context.Background(), media.UploadInput{Body: &buf, Category: models.MediaGallery, Alt: "Orangerie"})
	require.NoError(t, err)

	body := f.get("/galerie").Body.String()
	assert.Contains(t, body, "Orangerie")
	assert.Contains(t, body, item.VariantURLs["medium"])
}

func TestAnalytics_OnlyWithConsent(t *testing.T) {
	f := newFixture(t)
	assert.NotContains(t, f.get("/").Body.String(), "G-TEST123")

	refused, err := consent.Cookie(consent.New(false, false, time.Now()), false)
	require.NoError(t, err)
	body := f.get("/", refused).Body.String()
	assert.NotContains(t, body, "G-TEST123")
	assert.NotContains(t, body, "data-consent-banner")

	accepted, err := consent.Cookie(consent.New(true, false, time.Now()), false)
	require.NoError(t, err)
	assert.Contains(t, f.get("/", accepted).Body.String(), "G-TEST123")
}

func TestContactForm_PreselectsVenue(t *testing.T) {
	f := newFixture(t)
	v := f.venue(t, "Château Choisi", true, models.EventWedding)

	body := f.get("/contact?lieu=" + v.Slug).Body.String()
	assert.Contains(t, body, `value="`+v.Slug+`" selected`)

	body = f.get("/contact?sent=1").Body.String()
	assert.Contains(t, body, "Merci !")
}

func validForm() url.Values {
	return url.Values{
		"name":       {"Alice Martin"},
		"email":      {"alice@example.com"},
		"event_type": {"wedding"},
		"guests":     {"120"},
		"message":    {"Nous cherchons un lieu pour juin."},
		"consent":    {"on"},
	}
}

func TestContactSubmit_StoresLeadAndRedirects(t *testing.T) {
	f := newFixture(t)
	v := f.venue(t, "Château Demandé", true, models.EventWedding)
	form := validForm()
	form.Set("venue", v.Slug)

	w := f.postForm("/contact", form)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/contact?sent=1", w.Header().Get("Location"))

	list, err := f.site.Leads.List(context.Background(), leads.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, v.ID, list[0].VenueID)
	assert.Equal(t, 120, list[0].Guests)
	assert.Equal(t, models.SyncSkipped, list[0].Sync.Status)
}

func TestContactSubmit_InvalidRerendersWithMessages(t *testing.T) {
	f := newFixture(t)
	form := validForm()
	form.Set("email", "pas-un-email")
	form.Del("consent")

	w := f.postForm("/contact", form)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "adresse e-mail valide")
	assert.Contains(t, body, "accepter d&#39;être recontacté")
	assert.Contains(t, body, `value="Alice Martin"`)

	form = validForm()
	form.Set("guests", "beaucoup")
	assert.Equal(t, http.StatusBadRequest, f.postForm("/contact", form).Code)

	list, err := f.site.Leads.List(context.Background(), leads.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestContactSubmit_HoneypotPretendsSuccess(t *testing.T) {
	f := newFixture(t)
	form := validForm()
	form.Set("website", "http://spam.example")

	w := f.postForm("/contact", form)
	require.Equal(t, http.StatusSeeOther, w.Code)

	list, err := f.site.Leads.List(context.Background(), leads.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestContactSubmit_Limiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cr := content.NewMemoryRepo()
	s := &Site{
		Name:    "Lieux",
		Venues:  venues.NewService(venues.NewMemoryRepo()),
		Content: content.NewService(cr, cr),
		Leads:   leads.NewService(leads.NewMemoryRepo(), leads.Options{}),
		ContactLimiter: func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTooManyRequests)
		},
	}
	r := gin.New()
	require.NoError(t, s.Register(r))
	f := &fixture{site: s, router: r}

	assert.Equal(t, http.StatusTooManyRequests, f.postForm("/contact", validForm()).Code)
	assert.Equal(t, http.StatusOK, f.get("/contact").Code)
}

func TestContactSubmit_RateLimitedRendersForm(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	f.site.ContactLimiter = middleware.ContactLimit(nil, 1, 10*time.Minute, f.site.ContactRejected)
	require.NoError(t, f.site.Register(r))
	f.router = r

	require.Equal(t, http.StatusSeeOther, f.postForm("/contact", validForm()).Code)

	w := f.postForm("/contact", validForm())
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "600", w.Header().Get("Retry-After"))
	body := w.Body.String()
	assert.Contains(t, body, "Trop de demandes")
	assert.Contains(t, body, "dans 10 minute(s)")
	assert.Contains(t, body, `value="Alice Martin"`)

	list, err := f.site.Leads.List(context.Background(), leads.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
