package content

import (
	"context"

	"github.com/lieuxdexception/site/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores pages and timeline events in two collections.
type MongoRepo struct {
	pages    *mongo.Collection
	timeline *mongo.Collection
}

func NewMongoRepo(pages, timeline *mongo.Collection) *MongoRepo {
	return &MongoRepo{pages: pages, timeline: timeline}
}

func (m *MongoRepo) GetPage(ctx context.Context, slug string) (*models.PageContent, error) {
	var p models.PageContent
	if err := m.pages.FindOne(ctx, bson.M{"slug": slug}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) UpsertPage(ctx context.Context, p *models.PageContent) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.pages.ReplaceOne(ctx, bson.M{"slug": p.Slug}, p, opts)
	return err
}

func (m *MongoRepo) ListPages(ctx context.Context) ([]*models.PageContent, error) {
	cur, err := m.pages.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.PageContent{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) ListEvents(ctx context.Context) ([]*models.TimelineEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: 1}, {Key: "order", Value: 1}})
	cur, err := m.timeline.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.TimelineEvent{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) GetEvent(ctx context.Context, id string) (*models.TimelineEvent, error) {
	var e models.TimelineEvent
	if err := m.timeline.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (m *MongoRepo) CreateEvent(ctx context.Context, e *models.TimelineEvent) error {
	_, err := m.timeline.InsertOne(ctx, e)
	return err
}

func (m *MongoRepo) UpdateEvent(ctx context.Context, e *models.TimelineEvent) error {
	res, err := m.timeline.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteEvent(ctx context.Context, id string) error {
	res, err := m.timeline.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
