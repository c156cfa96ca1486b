package venues

import (
	"context"
	"errors"

	"github.com/lieuxdexception/site/internal/models"
)

var (
	ErrNotFound = errors.New("venue not found")
)

// Repository defines persistence operations for venues.
// Single-document lookups return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, v *models.Venue) error
	Get(ctx context.Context, id string) (*models.Venue, error)
	GetBySlug(ctx context.Context, slug string) (*models.Venue, error)
	List(ctx context.Context) ([]*models.Venue, error)
	Update(ctx context.Context, v *models.Venue) error
	Delete(ctx context.Context, id string) error
}
