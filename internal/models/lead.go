package models

import "time"

// Lead pipeline statuses (back-office follow-up).
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadWon       = "won"
	LeadLost      = "lost"
)

// CRM sync statuses.
const (
	SyncPending = "pending"
	SyncSyncing = "syncing"
	SyncSynced  = "synced"
	SyncFailed  = "failed"
	SyncSkipped = "skipped"
)

// LeadSync tracks the push of a lead into the CRM.
type LeadSync struct {
	Status    string     `bson:"status" json:"status"`
	OdooID    int64      `bson:"odooId,omitempty" json:"odooId,omitempty"`
	Attempts  int        `bson:"attempts" json:"attempts"`
	LastError string     `bson:"lastError,omitempty" json:"lastError,omitempty"`
	SyncedAt  *time.Time `bson:"syncedAt,omitempty" json:"syncedAt,omitempty"`
	// ClaimedAt is set while a process holds the lead in "syncing".
	ClaimedAt *time.Time `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
}

// Lead is a contact-form submission describing a prospective event booking.
type Lead struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Company   string    `bson:"company,omitempty" json:"company,omitempty"`
	EventType string    `bson:"eventType" json:"eventType"`
	EventDate string    `bson:"eventDate,omitempty" json:"eventDate,omitempty"`
	Guests    int       `bson:"guests,omitempty" json:"guests,omitempty"`
	VenueID   string    `bson:"venueId,omitempty" json:"venueId,omitempty"`
	VenueName string    `bson:"venueName,omitempty" json:"venueName,omitempty"`
	Message   string    `bson:"message" json:"message"`
	Source    string    `bson:"source" json:"source"`
	Consent   bool      `bson:"consent" json:"consent"`
	Status    string    `bson:"status" json:"status"`
	Sync      LeadSync  `bson:"sync" json:"sync"`
	IP        string    `bson:"ip,omitempty" json:"-"`
	UserAgent string    `bson:"userAgent,omitempty" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
