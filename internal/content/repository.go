package content

import (
	"context"
	"errors"

	"github.com/lieuxdexception/site/internal/models"
)

var ErrNotFound = errors.New("content not found")

// PageRepository stores PageContent documents keyed by slug.
type PageRepository interface {
	GetPage(ctx context.Context, slug string) (*models.PageContent, error)
	UpsertPage(ctx context.Context, p *models.PageContent) error
	ListPages(ctx context.Context) ([]*models.PageContent, error)
}

// TimelineRepository stores history-page events.
type TimelineRepository interface {
	ListEvents(ctx context.Context) ([]*models.TimelineEvent, error)
	GetEvent(ctx context.Context, id string) (*models.TimelineEvent, error)
	CreateEvent(ctx context.Context, e *models.TimelineEvent) error
	UpdateEvent(ctx context.Context, e *models.TimelineEvent) error
	DeleteEvent(ctx context.Context, id string) error
}
