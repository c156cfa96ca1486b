package models

import "time"

// TimelineEvent is one entry of the history page.
type TimelineEvent struct {
	ID          string    `bson:"_id" json:"id" yaml:"id,omitempty"`
	Year        int       `bson:"year" json:"year" yaml:"year"`
	Title       string    `bson:"title" json:"title" yaml:"title"`
	Description string    `bson:"description" json:"description" yaml:"description"`
	Image       string    `bson:"image,omitempty" json:"image,omitempty" yaml:"image,omitempty"`
	Order       int       `bson:"order" json:"order" yaml:"order"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}
