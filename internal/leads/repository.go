package leads

import (
	"context"
	"errors"
	"time"

	"github.com/lieuxdexception/site/internal/models"
)

var ErrNotFound = errors.New("lead not found")

// Filter narrows List. Zero values mean "any"; Limit <= 0 means no limit.
type Filter struct {
	Status     string
	SyncStatus string
	Limit      int
}

// Repository persists leads. Get returns (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, l *models.Lead) error
	Get(ctx context.Context, id string) (*models.Lead, error)
	// SetStatus changes the pipeline status only.
	SetStatus(ctx context.Context, id, status string, at time.Time) error
	// Claim atomically moves a lead that is not synced and not held by
	// another process into "syncing". A "syncing" claim older than
	// staleBefore is taken over. It returns (nil, nil) when the lead is
	// missing, synced or held.
	Claim(ctx context.Context, id string, at, staleBefore time.Time) (*models.Lead, error)
	// SaveSync replaces the sync state only, releasing the claim.
	SaveSync(ctx context.Context, id string, st models.LeadSync, at time.Time) error
	// List returns leads newest first.
	List(ctx context.Context, f Filter) ([]*models.Lead, error)
	// Syncable returns pending or failed leads, and syncing leads claimed
	// before staleBefore, with fewer than maxAttempts attempts, oldest first.
	Syncable(ctx context.Context, maxAttempts, limit int, staleBefore time.Time) ([]*models.Lead, error)
	// Each visits every lead, oldest first, stopping at the first error.
	Each(ctx context.Context, fn func(*models.Lead) error) error
}
