package models

import "time"

// Section is one editable block of a marketing page.
type Section struct {
	Key     string `bson:"key" json:"key" yaml:"key"`
	Heading string `bson:"heading" json:"heading" yaml:"heading"`
	Body    string `bson:"body" json:"body" yaml:"body"`
	Image   string `bson:"image,omitempty" json:"image,omitempty" yaml:"image,omitempty"`
}

// SEO holds the meta tags of a page.
type SEO struct {
	Title       string `bson:"title" json:"title" yaml:"title"`
	Description string `bson:"description" json:"description" yaml:"description"`
}

// PageContent backs the text and images of one marketing page.
type PageContent struct {
	Slug      string    `bson:"slug" json:"slug" yaml:"slug"`
	Title     string    `bson:"title" json:"title" yaml:"title"`
	Subtitle  string    `bson:"subtitle" json:"subtitle" yaml:"subtitle"`
	HeroImage string    `bson:"heroImage,omitempty" json:"heroImage,omitempty" yaml:"hero_image,omitempty"`
	Sections  []Section `bson:"sections" json:"sections" yaml:"sections"`
	SEO       SEO       `bson:"seo" json:"seo" yaml:"seo"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt" yaml:"-"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty" yaml:"-"`
}

// Section returns the section with the given key, or an empty one.
func (p *PageContent) Section(key string) Section {
	for _, s := range p.Sections {
		if s.Key == key {
			return s
		}
	}
	return Section{}
}
