// Package media handles image uploads for the gallery, venues and pages.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lieuxdexception/site/internal/idgen"
	"github.com/lieuxdexception/site/internal/images"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/metrics"
)

const DefaultMaxBytes = 15 << 20

// KeyPrefix holds uploaded originals and their variants.
const KeyPrefix = "media/"

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidCategory = errors.New("invalid media category")
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	Filename string
	Body     io.Reader
	Category string
	VenueID  string
	Alt      string
	By       string
}

type Service struct {
	repo     Repository
	store    storage.BlobStore
	presets  []images.Preset
	maxBytes int64
	now      func() time.Time
	log      *logger.Component
}

func NewService(repo Repository, store storage.BlobStore, presets []images.Preset, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(presets) == 0 {
		presets = images.DefaultPresets
	}
	return &Service{
		repo:     repo,
		store:    store,
		presets:  presets,
		maxBytes: maxBytes,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.For("media"),
	}
}

// Upload validates the file, stores the original and one JPEG per preset,
// then records the item. Objects already written are removed on failure.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.MediaItem, error) {
	switch in.Category {
	case models.MediaGallery, models.MediaVenue, models.MediaPage:
	default:
		return nil, ErrInvalidCategory
	}
	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	ctype := mimetype.Detect(data).String()
	ext, ok := extensions[ctype]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ctype)
	}
	img, err := images.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	id, err := idgen.New(idgen.PrefixMedia)
	if err != nil {
		return nil, err
	}
	dir := fmt.Sprintf("%s%s/%s/", KeyPrefix, in.Category, id)
	item := &models.MediaItem{
		ID:          id,
		Key:         dir + "original." + ext,
		ContentType: ctype,
		Size:        int64(len(data)),
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Alt:         strings.TrimSpace(in.Alt),
		Category:    in.Category,
		VenueID:     in.VenueID,
		Variants:    map[string]string{},
		CreatedAt:   s.now(),
		CreatedBy:   in.By,
	}

	var written []string
	cleanup := func() {
		for _, k := range written {
			if err := s.store.Delete(context.Background(), k); err != nil {
				s.log.Warnf("cleanup %s: %v", k, err)
			}
		}
	}
	if err := s.store.Upload(ctx, item.Key, bytes.NewReader(data), item.Size, ctype); err != nil {
		return nil, storage.BackendError("upload original", err)
	}
	written = append(written, item.Key)

	for _, p := range s.presets {
		res, err := images.Encode(img, p)
		if err != nil {
			cleanup()
			return nil, err
		}
		key := dir + p.Name + ".jpg"
		if err := s.store.Upload(ctx, key, bytes.NewReader(res.Data), int64(len(res.Data)), "image/jpeg"); err != nil {
			cleanup()
			return nil, storage.BackendError("upload "+p.Name, err)
		}
		written = append(written, key)
		item.Variants[p.Name] = key
	}

	if err := s.repo.Create(ctx, item); err != nil {
		cleanup()
		return nil, fmt.Errorf("save media: %w", err)
	}
	metrics.MediaUploads.WithLabelValues(item.Category).Inc()
	s.log.Infof("uploaded %s (%s, %dx%d)", item.ID, item.Category, item.Width, item.Height)
	s.fillURLs(ctx, item)
	return item, nil
}

// List returns items of category (all when empty) with URLs filled in.
func (s *Service) List(ctx context.Context, category string) ([]*models.MediaItem, error) {
	items, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		s.fillURLs(ctx, it)
	}
	return items, nil
}

// Get returns (nil, nil) when the item does not exist.
func (s *Service) Get(ctx context.Context, id string) (*models.MediaItem, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil || it == nil {
		return it, err
	}
	s.fillURLs(ctx, it)
	return it, nil
}

// Delete removes the stored objects, then the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if it == nil {
		return ErrNotFound
	}
	keys := []string{it.Key}
	for _, k := range it.Variants {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			return storage.BackendError("delete "+k, err)
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) fillURLs(ctx context.Context, it *models.MediaItem) {
	if u, err := s.store.URL(ctx, it.Key); err == nil {
		it.URL = u
	}
	it.VariantURLs = make(map[string]string, len(it.Variants))
	for name, key := range it.Variants {
		if u, err := s.store.URL(ctx, key); err == nil {
			it.VariantURLs[name] = u
		}
	}
}
