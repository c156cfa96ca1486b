package venues

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
	ErrInvalidVenue = errors.New("invalid venue")
	ErrSlugTaken    = errors.New("slug already in use")
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	EventType     string
	Region        string
	MinSeated     int
	PublishedOnly bool
	FeaturedOnly  bool
}

// Service encapsulates venue business rules on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// List returns venues matching f, sorted by Order then Name.
func (s *Service) List(ctx context.Context, f Filter) ([]*models.Venue, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Venue, 0, len(all))
	for _, v := range all {
		if f.PublishedOnly && !v.Published {
			continue
		}
		if f.FeaturedOnly && !v.Featured {
			continue
		}
		if f.EventType != "" && !v.Hosts(f.EventType) {
			continue
		}
		if f.Region != "" && !strings.EqualFold(v.Region, f.Region) {
			continue
		}
		if f.MinSeated > 0 && v.Capacity.Seated < f.MinSeated {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Regions returns the distinct regions of published venues, sorted.
func (s *Service) Regions(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx, Filter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, v := range list {
		if v.Region != "" && !seen[v.Region] {
			seen[v.Region] = true
			out = append(out, v.Region)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Venue, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Venue, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Create validates v, derives its slug and stores it with a fresh ID.
func (s *Service) Create(ctx context.Context, v *models.Venue) (*models.Venue, error) {
	if err := normalize(v); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetBySlug(ctx, v.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugTaken
	}
	id, err := idgen.New(idgen.PrefixVenue)
	if err != nil {
		return nil, err
	}
	now := s.now()
	v.ID = id
	v.CreatedAt = now
	v.UpdatedAt = now
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Update replaces the editable fields of venue id with those of v.
func (s *Service) Update(ctx context.Context, id string, v *models.Venue) (*models.Venue, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if err := normalize(v); err != nil {
		return nil, err
	}
	if v.Slug != cur.Slug {
		other, err := s.repo.GetBySlug(ctx, v.Slug)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, ErrSlugTaken
		}
	}
	v.ID = id
	v.CreatedAt = cur.CreatedAt
	v.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Upsert creates or updates the venue identified by v.Slug (seed imports).
func (s *Service) Upsert(ctx context.Context, v *models.Venue) (created bool, err error) {
	if err := normalize(v); err != nil {
		return false, err
	}
	cur, err := s.repo.GetBySlug(ctx, v.Slug)
	if err != nil {
		return false, err
	}
	if cur == nil {
		_, err := s.Create(ctx, v)
		return err == nil, err
	}
	_, err = s.Update(ctx, cur.ID, v)
	return false, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ReplaceImage rewrites every reference to oldKey (gallery or cover) with
// newKey and returns the number of venues changed.
func (s *Service) ReplaceImage(ctx context.Context, oldKey, newKey string) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, v := range all {
		touched := false
		for i, img := range v.Images {
			if img == oldKey {
				v.Images[i] = newKey
				touched = true
			}
		}
		if v.CoverImage == oldKey {
			v.CoverImage = newKey
			touched = true
		}
		if !touched {
			continue
		}
		v.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, v); err != nil {
			return changed, fmt.Errorf("update venue %s: %w", v.ID, err)
		}
		changed++
	}
	return changed, nil
}

var validKinds = map[string]bool{
	models.KindChateau: true, models.KindManoir: true, models.KindDomaine: true,
	models.KindDome: true, models.KindOther: true,
}

var validEventTypes = map[string]bool{
	models.EventWedding: true, models.EventB2B: true, models.EventPrivate: true,
}

func normalize(v *models.Venue) error {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidVenue)
	}
	if strings.TrimSpace(v.Slug) == "" {
		v.Slug = Slugify(v.Name)
	} else {
		v.Slug = Slugify(v.Slug)
	}
	if v.Slug == "" {
		return fmt.Errorf("%w: name yields an empty slug", ErrInvalidVenue)
	}
	if v.Kind == "" {
		v.Kind = models.KindOther
	}
	if !validKinds[v.Kind] {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidVenue, v.Kind)
	}
	for _, t := range v.EventTypes {
		if !validEventTypes[t] {
			return fmt.Errorf("%w: unknown event type %q", ErrInvalidVenue, t)
		}
	}
	if v.Capacity.Seated < 0 || v.Capacity.Standing < 0 || v.Capacity.Bedrooms < 0 || v.SurfaceM2 < 0 {
		return fmt.Errorf("%w: capacities must not be negative", ErrInvalidVenue)
	}
	if v.Amenities == nil {
		v.Amenities = []string{}
	}
	if v.EventTypes == nil {
		v.EventTypes = []string{}
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	return nil
}
