package models

import "time"

// Venue kinds.
const (
	KindChateau = "chateau"
	KindManoir  = "manoir"
	KindDomaine = "domaine"
	KindDome    = "dome"
	KindOther   = "other"
)

// Event types a venue can host; also used on leads.
const (
	EventWedding = "wedding"
	EventB2B     = "b2b"
	EventPrivate = "private"
	EventOther   = "other"
)

// Capacity describes how many guests a venue takes.
type Capacity struct {
	Seated   int `bson:"seated" json:"seated"`
	Standing int `bson:"standing" json:"standing"`
	Bedrooms int `bson:"bedrooms" json:"bedrooms"`
}

// Venue is a bookable property (château, manor, dome...).
type Venue struct {
	ID          string    `bson:"_id" json:"id" yaml:"id,omitempty"`
	Slug        string    `bson:"slug" json:"slug" yaml:"slug"`
	Name        string    `bson:"name" json:"name" yaml:"name"`
	Kind        string    `bson:"kind" json:"kind" yaml:"kind"`
	Region      string    `bson:"region" json:"region" yaml:"region"`
	City        string    `bson:"city" json:"city" yaml:"city"`
	Summary     string    `bson:"summary" json:"summary" yaml:"summary"`
	Description string    `bson:"description" json:"description" yaml:"description"`
	Capacity    Capacity  `bson:"capacity" json:"capacity" yaml:"capacity"`
	SurfaceM2   int       `bson:"surfaceM2" json:"surfaceM2" yaml:"surface_m2"`
	Amenities   []string  `bson:"amenities" json:"amenities" yaml:"amenities"`
	EventTypes  []string  `bson:"eventTypes" json:"eventTypes" yaml:"event_types"`
	Images      []string  `bson:"images" json:"images" yaml:"images"`
	CoverImage  string    `bson:"coverImage" json:"coverImage" yaml:"cover_image"`
	Featured    bool      `bson:"featured" json:"featured" yaml:"featured"`
	Published   bool      `bson:"published" json:"published" yaml:"published"`
	Order       int       `bson:"order" json:"order" yaml:"order"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

// Hosts reports whether the venue lists the given event type.
func (v *Venue) Hosts(eventType string) bool {
	for _, t := range v.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}
