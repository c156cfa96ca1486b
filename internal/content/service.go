package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lieuxdexception/site/internal/idgen"
	"github.com/lieuxdexception/site/internal/models"
)

var (
	ErrUnknownPage  = errors.New("unknown page")
	ErrInvalidPage  = errors.New("invalid page content")
	ErrInvalidEvent = errors.New("invalid timeline event")
)

// Service exposes page content and the history timeline.
type Service struct {
	pages    PageRepository
	timeline TimelineRepository
	now      func() time.Time
}

func NewService(p PageRepository, t TimelineRepository) *Service {
	return &Service{pages: p, timeline: t, now: func() time.Time { return time.Now().UTC() }}
}

// GetPage returns the stored page or the built-in default.
func (s *Service) GetPage(ctx context.Context, slug string) (*models.PageContent, error) {
	if !KnownPage(slug) {
		return nil, ErrUnknownPage
	}
	p, err := s.pages.GetPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	d, _ := DefaultPage(slug)
	return d, nil
}

// SavePage upserts page content. by is the editor's subject.
func (s *Service) SavePage(ctx context.Context, p *models.PageContent, by string) (*models.PageContent, error) {
	p.Slug = strings.TrimSpace(p.Slug)
	if !KnownPage(p.Slug) {
		return nil, ErrUnknownPage
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPage)
	}
	seen := map[string]bool{}
	for _, sec := range p.Sections {
		if sec.Key == "" {
			return nil, fmt.Errorf("%w: section key is required", ErrInvalidPage)
		}
		if seen[sec.Key] {
			return nil, fmt.Errorf("%w: duplicate section %q", ErrInvalidPage, sec.Key)
		}
		seen[sec.Key] = true
	}
	if p.Sections == nil {
		p.Sections = []models.Section{}
	}
	p.UpdatedAt = s.now()
	p.UpdatedBy = by
	if err := s.pages.UpsertPage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPages returns every known page (stored or default), sorted by slug.
func (s *Service) ListPages(ctx context.Context) ([]*models.PageContent, error) {
	stored, err := s.pages.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	bySlug := map[string]*models.PageContent{}
	for _, p := range stored {
		bySlug[p.Slug] = p
	}
	out := make([]*models.PageContent, 0, len(defaults))
	for slug := range defaults {
		if p, ok := bySlug[slug]; ok {
			out = append(out, p)
			continue
		}
		d, _ := DefaultPage(slug)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// ListTimeline returns events sorted by Year then Order.
func (s *Service) ListTimeline(ctx context.Context) ([]*models.TimelineEvent, error) {
	list, err := s.timeline.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Year != list[j].Year {
			return list[i].Year < list[j].Year
		}
		return list[i].Order < list[j].Order
	})
	return list, nil
}

func (s *Service) CreateEvent(ctx context.Context, e *models.TimelineEvent) (*models.TimelineEvent, error) {
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	id, err := idgen.New(idgen.PrefixTimeline)
	if err != nil {
		return nil, err
	}
	now := s.now()
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.timeline.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id string, e *models.TimelineEvent) (*models.TimelineEvent, error) {
	cur, err := s.timeline.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	e.ID = id
	e.CreatedAt = cur.CreatedAt
	e.UpdatedAt = s.now()
	if err := s.timeline.UpdateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	return s.timeline.DeleteEvent(ctx, id)
}

func validateEvent(e *models.TimelineEvent) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Year <= 0 {
		return fmt.Errorf("%w: year must be positive", ErrInvalidEvent)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	return nil
}
