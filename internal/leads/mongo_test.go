package leads

import (
	"context"
	"testing"
	"time"

	"github.com/lieuxdexception/site/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("claim returns the claimed lead", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "lead_1"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "sync", Value: bson.D{
				{Key: "status", Value: models.SyncSyncing},
				{Key: "attempts", Value: 0},
				{Key: "claimedAt", Value: now},
			}},
		}}))
		l, err := repo.Claim(context.Background(), "lead_1", now, now.Add(-DefaultSyncLease))
		require.NoError(mt, err)
		require.NotNil(mt, l)
		require.Equal(mt, models.SyncSyncing, l.Sync.Status)
		require.NotNil(mt, l.Sync.ClaimedAt)
	})

	mt.Run("claim held elsewhere returns nil", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		l, err := repo.Claim(context.Background(), "lead_1", now, now.Add(-DefaultSyncLease))
		require.NoError(mt, err)
		require.Nil(mt, l)
	})

	mt.Run("save sync unmatched", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := repo.SaveSync(context.Background(), "lead_missing", models.LeadSync{Status: models.SyncSynced}, now)
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("set status", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(mt, repo.SetStatus(context.Background(), "lead_1", models.LeadWon, now))
	})
}
