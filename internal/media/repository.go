package media

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/lieuxdexception/site/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("media not found")

// Repository persists media metadata. Get returns (nil, nil) when missing.
type Repository interface {
	Create(ctx context.Context, m *models.MediaItem) error
	Get(ctx context.Context, id string) (*models.MediaItem, error)
	// List returns items newest first; an empty category matches all.
	List(ctx context.Context, category string) ([]*models.MediaItem, error)
	Delete(ctx context.Context, id string) error
}

type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]models.MediaItem
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]models.MediaItem)}
}

// clone copies the variant maps so callers never share them with the store.
func clone(m models.MediaItem) models.MediaItem {
	m.Variants = maps.Clone(m.Variants)
	m.VariantURLs = maps.Clone(m.VariantURLs)
	return m
}

func (r *MemoryRepo) Create(ctx context.Context, m *models.MediaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.ID] = clone(*m)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (*models.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.items[id]; ok {
		m = clone(m)
		return &m, nil
	}
	return nil, nil
}

func (r *MemoryRepo) List(ctx context.Context, category string) ([]*models.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.MediaItem{}
	for _, m := range r.items {
		if category != "" && m.Category != category {
			continue
		}
		m := clone(m)
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// MongoRepo stores media metadata in the "media" collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (r *MongoRepo) Create(ctx context.Context, m *models.MediaItem) error {
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*models.MediaItem, error) {
	var m models.MediaItem
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MongoRepo) List(ctx context.Context, category string) ([]*models.MediaItem, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []*models.MediaItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
