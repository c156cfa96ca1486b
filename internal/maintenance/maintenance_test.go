package maintenance

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/images"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/internal/venues"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPresets = []images.Preset{
	{Name: "thumb", Width: 40, Quality: 70},
	{Name: "large", Width: 120, Quality: 80},
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func put(t *testing.T, store storage.BlobStore, key string, data []byte) {
	t.Helper()
	require.NoError(t, store.Upload(context.Background(), key, bytes.NewReader(data), int64(len(data)), storage.ContentTypeFor(key)))
}

func newOptimizer(t *testing.T) (*Optimizer, *storage.MemoryStore, *venues.Service, *bytes.Buffer) {
	t.Helper()
	store := storage.NewMemoryStore("http://test/media")
	vs := venues.NewService(venues.NewMemoryRepo())
	out := &bytes.Buffer{}
	return &Optimizer{Store: store, Presets: testPresets, Venues: vs, Out: out}, store, vs, out
}

func TestOptimize_GeneratesMissingVariants(t *testing.T) {
	o, store, _, _ := newOptimizer(t)
	ctx := context.Background()
	put(t, store, "venues/vaux/hall.png", pngBytes(t, 300, 150))
	put(t, store, "venues/vaux/notes.txt", []byte("not an image"))
	put(t, store, "media/gallery/med_1/original.png", pngBytes(t, 50, 50))

	rep, err := o.Run(ctx, OptimizeOptions{Prefix: "venues/"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Originals)
	assert.Equal(t, 2, rep.Generated)
	assert.Zero(t, rep.Failed)

	ok, err := store.Exists(ctx, "optimized/venues/vaux/hall-png-large.jpg")
	require.NoError(t, err)
	require.True(t, ok)

	rc, err := store.Download(ctx, "optimized/venues/vaux/hall-png-thumb.jpg")
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, cfg.Width)

	// second pass finds nothing to do
	rep, err = o.Run(ctx, OptimizeOptions{Prefix: "venues/"})
	require.NoError(t, err)
	assert.Zero(t, rep.Generated)
	assert.Empty(t, rep.Missing)
}

func TestOptimize_SkipsUploadedMedia(t *testing.T) {
	o, store, _, _ := newOptimizer(t)
	put(t, store, "media/gallery/med_1/original.png", pngBytes(t, 50, 50))

	rep, err := o.Run(context.Background(), OptimizeOptions{})
	require.NoError(t, err)
	assert.Zero(t, rep.Originals)
}

func TestOptimize_VerifyOnlyReports(t *testing.T) {
	o, store, _, out := newOptimizer(t)
	ctx := context.Background()
	put(t, store, "venues/a.png", pngBytes(t, 60, 60))

	rep, err := o.Run(ctx, OptimizeOptions{Prefix: "venues/", Verify: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"venues/a.png"}, rep.Missing)
	assert.Zero(t, rep.Generated)
	assert.Contains(t, out.String(), "missing optimized/venues/a-png-thumb.jpg")

	ok, _ := store.Exists(ctx, "optimized/venues/a-png-thumb.jpg")
	assert.False(t, ok)
}

func TestOptimize_DryRunWritesNothing(t *testing.T) {
	o, store, _, out := newOptimizer(t)
	put(t, store, "venues/a.png", pngBytes(t, 60, 60))

	rep, err := o.Run(context.Background(), OptimizeOptions{Prefix: "venues/", DryRun: true, Update: true})
	require.NoError(t, err)
	assert.Zero(t, rep.Generated)
	assert.Zero(t, rep.Updated)
	assert.Contains(t, out.String(), "would write optimized/venues/a-png-large.jpg")

	page, err := store.List(context.Background(), images.OptimizedPrefix, "", 0)
	require.NoError(t, err)
	assert.Empty(t, page.Objects)
}

func TestOptimize_UpdateRewritesVenueImages(t *testing.T) {
	o, store, vs, _ := newOptimizer(t)
	ctx := context.Background()
	put(t, store, "venues/vaux/cover.png", pngBytes(t, 200, 100))
	v, err := vs.Create(ctx, &models.Venue{
		Name:       "Vaux",
		CoverImage: "venues/vaux/cover.png",
		Images:     []string{"venues/vaux/cover.png", "venues/vaux/other.png"},
	})
	require.NoError(t, err)

	rep, err := o.Run(ctx, OptimizeOptions{Prefix: "venues/", Update: true})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Updated)

	got, err := vs.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "optimized/venues/vaux/cover-png-large.jpg", got.CoverImage)
	assert.Equal(t, []string{"optimized/venues/vaux/cover-png-large.jpg", "venues/vaux/other.png"}, got.Images)
}

func TestOptimize_CorruptImageCountsAsFailure(t *testing.T) {
	o, store, _, out := newOptimizer(t)
	put(t, store, "venues/broken.jpg", []byte("not really a jpeg"))
	put(t, store, "venues/ok.png", pngBytes(t, 30, 30))

	rep, err := o.Run(context.Background(), OptimizeOptions{Prefix: "venues/"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Originals)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 2, rep.Generated)
	assert.Contains(t, out.String(), "FAIL venues/broken.jpg")
}

func TestOptimize_RejectsTraversalPrefix(t *testing.T) {
	o, _, _, _ := newOptimizer(t)
	_, err := o.Run(context.Background(), OptimizeOptions{Prefix: "../etc"})
	require.Error(t, err)
}

const seedDoc = `
venues:
  - name: Château de Vaux
    kind: chateau
    region: Normandie
    capacity:
      seated: 180
      standing: 250
    event_types: [wedding, b2b]
    published: true
pages:
  - slug: home
    title: Des lieux d'exception
    sections:
      - key: intro
        heading: Bienvenue
        body: Châteaux et domaines pour vos événements.
timeline:
  - year: 1998
    title: Premier château
    description: Acquisition du château de Vaux.
  - year: 2015
    title: Le dôme
`

func newSeeder() *Seeder {
	return &Seeder{
		Venues:  venues.NewService(venues.NewMemoryRepo()),
		Content: content.NewService(content.NewMemoryRepo(), content.NewMemoryRepo()),
		By:      "sitectl",
	}
}

func TestSeed_ImportsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSeeder()

	f, err := ParseSeed(strings.NewReader(seedDoc))
	require.NoError(t, err)
	rep, err := s.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{VenuesCreated: 1, Pages: 1, TimelineCreated: 2}, rep)

	v, err := s.Venues.GetBySlug(ctx, "chateau-de-vaux")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 180, v.Capacity.Seated)
	assert.Equal(t, []string{"wedding", "b2b"}, v.EventTypes)

	p, err := s.Content.GetPage(ctx, content.PageHome)
	require.NoError(t, err)
	assert.Equal(t, "Bienvenue", p.Section("intro").Heading)
	assert.Equal(t, "sitectl", p.UpdatedBy)

	f, err = ParseSeed(strings.NewReader(seedDoc))
	require.NoError(t, err)
	rep, err = s.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{VenuesUpdated: 1, Pages: 1, TimelineUpdated: 2}, rep)

	events, err := s.Content.ListTimeline(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 1998, events[0].Year)
}

func TestParseSeed_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseSeed(strings.NewReader("venues:\n  - name: X\n    capcity: 3\n"))
	require.Error(t, err)
}

func TestParseSeed_Empty(t *testing.T) {
	f, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Venues)
}

func TestSeed_StopsOnInvalidPage(t *testing.T) {
	s := newSeeder()
	f := &SeedFile{Pages: []models.PageContent{{Slug: "nope", Title: "x"}}}
	_, err := s.Apply(context.Background(), f)
	require.ErrorIs(t, err, content.ErrUnknownPage)
}

func TestOptimize_SameNameDifferentFormatsKeepOwnVariants(t *testing.T) {
	o, store, _, _ := newOptimizer(t)
	ctx := context.Background()
	put(t, store, "venues/a/hall.png", pngBytes(t, 120, 60))
	put(t, store, "venues/a/hall.jpg", pngBytes(t, 120, 60))

	rep, err := o.Run(ctx, OptimizeOptions{Prefix: "venues/"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Originals)
	assert.Equal(t, 2*len(testPresets), rep.Generated)

	rep, err = o.Run(ctx, OptimizeOptions{Prefix: "venues/", Verify: true})
	require.NoError(t, err)
	assert.Empty(t, rep.Missing)
}
