package models

import "time"

// Media categories.
const (
	MediaGallery = "gallery"
	MediaVenue   = "venue"
	MediaPage    = "page"
)

// MediaItem is an uploaded image stored in object storage.
type MediaItem struct {
	ID          string            `bson:"_id" json:"id"`
	Key         string            `bson:"key" json:"key"`
	URL         string            `bson:"-" json:"url,omitempty"`
	ContentType string            `bson:"contentType" json:"contentType"`
	Size        int64             `bson:"size" json:"size"`
	Width       int               `bson:"width" json:"width"`
	Height      int               `bson:"height" json:"height"`
	Alt         string            `bson:"alt" json:"alt"`
	Category    string            `bson:"category" json:"category"`
	VenueID     string            `bson:"venueId,omitempty" json:"venueId,omitempty"`
	Variants    map[string]string `bson:"variants" json:"variants"`
	VariantURLs map[string]string `bson:"-" json:"variantUrls,omitempty"`
	CreatedAt   time.Time         `bson:"createdAt" json:"createdAt"`
	CreatedBy   string            `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
}
