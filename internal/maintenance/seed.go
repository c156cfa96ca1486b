package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/venues"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document read by `sitectl seed`.
type SeedFile struct {
	Venues   []models.Venue         `yaml:"venues"`
	Pages    []models.PageContent   `yaml:"pages"`
	Timeline []models.TimelineEvent `yaml:"timeline"`
}

type SeedReport struct {
	VenuesCreated   int `json:"venuesCreated"`
	VenuesUpdated   int `json:"venuesUpdated"`
	Pages           int `json:"pages"`
	TimelineCreated int `json:"timelineCreated"`
	TimelineUpdated int `json:"timelineUpdated"`
}

func (r SeedReport) Total() int {
	return r.VenuesCreated + r.VenuesUpdated + r.Pages + r.TimelineCreated + r.TimelineUpdated
}

// ParseSeed decodes a seed document. Unknown keys are rejected so typos in
// hand-written files surface instead of being dropped.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f SeedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Seeder imports a SeedFile. Venues are matched by slug and timeline events
// by year and title, so running the same file twice changes nothing new.
type Seeder struct {
	Venues  *venues.Service
	Content *content.Service
	// By is recorded as the editor of imported pages.
	By string
}

func (s *Seeder) Apply(ctx context.Context, f *SeedFile) (SeedReport, error) {
	var rep SeedReport
	for i := range f.Venues {
		v := f.Venues[i]
		created, err := s.Venues.Upsert(ctx, &v)
		if err != nil {
			return rep, fmt.Errorf("venue %q: %w", v.Name, err)
		}
		if created {
			rep.VenuesCreated++
		} else {
			rep.VenuesUpdated++
		}
	}

	for i := range f.Pages {
		p := f.Pages[i]
		if _, err := s.Content.SavePage(ctx, &p, s.By); err != nil {
			return rep, fmt.Errorf("page %q: %w", p.Slug, err)
		}
		rep.Pages++
	}

	if len(f.Timeline) == 0 {
		return rep, nil
	}
	existing, err := s.Content.ListTimeline(ctx)
	if err != nil {
		return rep, err
	}
	index := map[string]string{}
	for _, e := range existing {
		index[timelineKey(e.Year, e.Title)] = e.ID
	}
	for i := range f.Timeline {
		e := f.Timeline[i]
		if id, ok := index[timelineKey(e.Year, e.Title)]; ok {
			if _, err := s.Content.UpdateEvent(ctx, id, &e); err != nil {
				return rep, fmt.Errorf("timeline %d %q: %w", e.Year, e.Title, err)
			}
			rep.TimelineUpdated++
			continue
		}
		created, err := s.Content.CreateEvent(ctx, &e)
		if err != nil {
			return rep, fmt.Errorf("timeline %d %q: %w", e.Year, e.Title, err)
		}
		index[timelineKey(created.Year, created.Title)] = created.ID
		rep.TimelineCreated++
	}
	return rep, nil
}

func timelineKey(year int, title string) string {
	return fmt.Sprintf("%d|%s", year, strings.ToLower(strings.TrimSpace(title)))
}
