package content

import "github.com/lieuxdexception/site/internal/models"

// Page slugs rendered by the public site.
const (
	PageHome     = "home"
	PageVenues   = "venues"
	PageWeddings = "weddings"
	PageB2B      = "b2b"
	PageGallery  = "gallery"
	PageHistory  = "history"
	PageContact  = "contact"
	PageLegal    = "legal"
)

// defaults keep every public page renderable on an empty database.
var defaults = map[string]models.PageContent{
	PageHome: {
		Slug:     PageHome,
		Title:    "Lieux d'Exception",
		Subtitle: "Châteaux, manoirs et domaines pour vos mariages et événements",
		Sections: []models.Section{
			{Key: "intro", Heading: "Des lieux chargés d'histoire", Body: "Une collection de demeures historiques pour recevoir vos invités."},
		},
		SEO: models.SEO{Title: "Lieux d'Exception", Description: "Location de châteaux et domaines pour mariages et séminaires."},
	},
	PageVenues: {
		Slug:     PageVenues,
		Title:    "Nos lieux",
		Subtitle: "Trouvez le lieu qui vous ressemble",
		SEO:      models.SEO{Title: "Nos lieux | Lieux d'Exception"},
	},
	PageWeddings: {
		Slug:     PageWeddings,
		Title:    "Mariages",
		Subtitle: "Célébrez votre union dans un cadre d'exception",
		SEO:      models.SEO{Title: "Mariages | Lieux d'Exception"},
	},
	PageB2B: {
		Slug:     PageB2B,
		Title:    "Événements d'entreprise",
		Subtitle: "Séminaires, conventions et soirées de gala",
		SEO:      models.SEO{Title: "Événements d'entreprise | Lieux d'Exception"},
	},
	PageGallery: {
		Slug:  PageGallery,
		Title: "Galerie",
		SEO:   models.SEO{Title: "Galerie | Lieux d'Exception"},
	},
	PageHistory: {
		Slug:     PageHistory,
		Title:    "Notre histoire",
		Subtitle: "Des siècles de patrimoine",
		SEO:      models.SEO{Title: "Notre histoire | Lieux d'Exception"},
	},
	PageContact: {
		Slug:     PageContact,
		Title:    "Contact",
		Subtitle: "Parlez-nous de votre projet",
		SEO:      models.SEO{Title: "Contact | Lieux d'Exception"},
	},
	PageLegal: {
		Slug:  PageLegal,
		Title: "Mentions légales",
		SEO:   models.SEO{Title: "Mentions légales | Lieux d'Exception"},
	},
}

// KnownPage reports whether slug is one of the editable pages.
func KnownPage(slug string) bool {
	_, ok := defaults[slug]
	return ok
}

// DefaultPage returns a copy of the built-in content for slug.
func DefaultPage(slug string) (*models.PageContent, bool) {
	p, ok := defaults[slug]
	if !ok {
		return nil, false
	}
	p.Sections = append([]models.Section(nil), p.Sections...)
	return &p, true
}
