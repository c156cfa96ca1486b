package leads

import (
	"context"
	"time"

	"github.com/lieuxdexception/site/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores leads in the "leads" collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, l *models.Lead) error {
	_, err := m.col.InsertOne(ctx, l)
	return err
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*models.Lead, error) {
	var l models.Lead
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (m *MongoRepo) SetStatus(ctx context.Context, id, status string, at time.Time) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// claimFilter matches leads another process may not be syncing right now.
func claimFilter(staleBefore time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sync.status": bson.M{"$in": bson.A{models.SyncPending, models.SyncFailed, models.SyncSkipped}}},
		bson.M{"sync.status": models.SyncSyncing, "sync.claimedAt": bson.M{"$lt": staleBefore}},
	}}
}

func (m *MongoRepo) Claim(ctx context.Context, id string, at, staleBefore time.Time) (*models.Lead, error) {
	filter := claimFilter(staleBefore)
	filter["_id"] = id
	update := bson.M{"$set": bson.M{
		"sync.status":    models.SyncSyncing,
		"sync.claimedAt": at,
		"updatedAt":      at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var l models.Lead
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&l); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (m *MongoRepo) SaveSync(ctx context.Context, id string, st models.LeadSync, at time.Time) error {
	st.ClaimedAt = nil
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"sync": st, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) List(ctx context.Context, f Filter) ([]*models.Lead, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.SyncStatus != "" {
		filter["sync.status"] = f.SyncStatus
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return m.find(ctx, filter, opts)
}

func (m *MongoRepo) Syncable(ctx context.Context, maxAttempts, limit int, staleBefore time.Time) ([]*models.Lead, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sync.status": bson.M{"$in": bson.A{models.SyncPending, models.SyncFailed}}},
			bson.M{"sync.status": models.SyncSyncing, "sync.claimedAt": bson.M{"$lt": staleBefore}},
		},
		"sync.attempts": bson.M{"$lt": maxAttempts},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return m.find(ctx, filter, opts)
}

func (m *MongoRepo) Each(ctx context.Context, fn func(*models.Lead) error) error {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var l models.Lead
		if err := cur.Decode(&l); err != nil {
			return err
		}
		if err := fn(&l); err != nil {
			return err
		}
	}
	return cur.Err()
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Lead, error) {
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Lead{}
	for cur.Next(ctx) {
		var l models.Lead
		if err := cur.Decode(&l); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, cur.Err()
}
