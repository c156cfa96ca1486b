package content

import (
	"context"
	"testing"

	"github.com/lieuxdexception/site/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPage_FallsBackToDefault(t *testing.T) {
	svc := NewService(NewMemoryRepo(), NewMemoryRepo())
	ctx := context.Background()

	p, err := svc.GetPage(ctx, PageWeddings)
	require.NoError(t, err)
	assert.Equal(t, "Mariages", p.Title)

	_, err = svc.GetPage(ctx, "blog")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestSavePage(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	_, err := svc.SavePage(ctx, &models.PageContent{Slug: PageHome, Title: "  "}, "u1")
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = svc.SavePage(ctx, &models.PageContent{Slug: PageHome, Title: "Accueil", Sections: []models.Section{
		{Key: "intro"}, {Key: "intro"},
	}}, "u1")
	assert.ErrorIs(t, err, ErrInvalidPage)

	saved, err := svc.SavePage(ctx, &models.PageContent{Slug: PageHome, Title: "Accueil"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.UpdatedBy)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := svc.GetPage(ctx, PageHome)
	require.NoError(t, err)
	assert.Equal(t, "Accueil", got.Title)

	all, err := svc.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 8)
	for _, p := range all {
		if p.Slug == PageHome {
			assert.Equal(t, "Accueil", p.Title)
		}
	}
}

func TestTimeline_SortedByYearThenOrder(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	for _, e := range []models.TimelineEvent{
		{Year: 1850, Title: "Restauration", Order: 2},
		{Year: 1620, Title: "Construction"},
		{Year: 1850, Title: "Nouveaux jardins", Order: 1},
	} {
		e := e
		_, err := svc.CreateEvent(ctx, &e)
		require.NoError(t, err)
	}

	list, err := svc.ListTimeline(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Construction", list[0].Title)
	assert.Equal(t, "Nouveaux jardins", list[1].Title)
	assert.Equal(t, "Restauration", list[2].Title)
	assert.Contains(t, list[0].ID, "tl_")
}

func TestTimeline_UpdateAndDelete(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, &models.TimelineEvent{Year: 0, Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	e, err := svc.CreateEvent(ctx, &models.TimelineEvent{Year: 1700, Title: "Orangerie"})
	require.NoError(t, err)

	upd, err := svc.UpdateEvent(ctx, e.ID, &models.TimelineEvent{Year: 1710, Title: "Orangerie"})
	require.NoError(t, err)
	assert.Equal(t, 1710, upd.Year)
	assert.Equal(t, e.CreatedAt, upd.CreatedAt)

	_, err = svc.UpdateEvent(ctx, "tl_missing", &models.TimelineEvent{Year: 1, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteEvent(ctx, e.ID))
	assert.ErrorIs(t, svc.DeleteEvent(ctx, e.ID), ErrNotFound)
}

func TestMemoryRepo_SectionsAreCopied(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, repo)
	ctx := context.Background()

	_, err := svc.SavePage(ctx, &models.PageContent{Slug: PageHistory, Title: "Notre histoire", Sections: []models.Section{
		{Key: "intro", Heading: "Depuis 2004"},
	}}, "u1")
	require.NoError(t, err)

	got, err := svc.GetPage(ctx, PageHistory)
	require.NoError(t, err)
	got.Sections[0].Heading = "changed-by-reader"

	again, err := svc.GetPage(ctx, PageHistory)
	require.NoError(t, err)
	assert.Equal(t, "Depuis 2004", again.Sections[0].Heading)
}
