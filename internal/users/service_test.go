package users

import (
	"context"
	"errors"
	"testing"

	"github.com/lieuxdexception/site/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type fakeRevoker struct {
	subs []string
	err  error
}

func (f *fakeRevoker) RevokeAll(_ context.Context, sub string) (int, error) {
	f.subs = append(f.subs, sub)
	return 2, f.err
}

func TestUpsertFromClaims(t *testing.T) {
	svc := NewService(NewMemoryUserRepository(), []string{"Owner@Example.com"}, nil)
	ctx := context.Background()

	u, err := svc.UpsertFromClaims(ctx, map[string]interface{}{
		"sub":   "sub-123",
		"email": "x@example.com",
		"name":  "X User",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "sub-123", u.Sub)
	assert.Equal(t, "X User", u.Name)
	assert.Equal(t, models.RoleViewer, u.Role)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.False(t, u.CreatedAt.After(u.UpdatedAt))

	u2, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"email": "y@e.com"})
	require.NoError(t, err)
	assert.Nil(t, u2)
}

func TestUpsertFromClaims_AdminEmail(t *testing.T) {
	svc := NewService(NewMemoryUserRepository(), []string{"owner@example.com"}, nil)
	u, err := svc.UpsertFromClaims(context.Background(), map[string]interface{}{
		"sub":                "kc-1",
		"email":              "OWNER@example.com ",
		"preferred_username": "owner",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "owner@example.com", u.Email)
	assert.Equal(t, "owner", u.Name)
}

func TestUpsertFromClaims_KeepsRoleOnRelogin(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	claims := map[string]interface{}{"sub": "kc-2", "email": "ed@example.com"}

	_, err := svc.UpsertFromClaims(ctx, claims)
	require.NoError(t, err)
	_, err = svc.SetRole(ctx, "kc-2", models.RoleEditor)
	require.NoError(t, err)

	u, err := svc.UpsertFromClaims(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, u.Role)
}

func TestSetRole(t *testing.T) {
	repo := NewMemoryUserRepository()
	rev := &fakeRevoker{}
	svc := NewService(repo, nil, rev)
	ctx := context.Background()
	_, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"sub": "kc-3", "email": "b@example.com"})
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, "kc-3", "superuser")
	require.ErrorIs(t, err, ErrInvalidRole)
	assert.Empty(t, rev.subs)

	_, err = svc.SetRole(ctx, "ghost", models.RoleAdmin)
	require.ErrorIs(t, err, ErrNotFound)

	u, err := svc.SetRole(ctx, "kc-3", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, []string{"kc-3"}, rev.subs)

	rev.err = errors.New("redis down")
	_, err = svc.SetRole(ctx, "kc-3", models.RoleViewer)
	require.NoError(t, err)
}

func TestList_SortedByEmail(t *testing.T) {
	svc := NewService(NewMemoryUserRepository(), nil, nil)
	ctx := context.Background()
	for _, c := range []map[string]interface{}{
		{"sub": "2", "email": "zoe@example.com"},
		{"sub": "1", "email": "anne@example.com"},
	} {
		_, err := svc.UpsertFromClaims(ctx, c)
		require.NoError(t, err)
	}
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "anne@example.com", list[0].Email)
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert returns stored document", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: "u1"},
				{Key: "sub", Value: "kc-1"},
				{Key: "email", Value: "a@b.fr"},
				{Key: "role", Value: "editor"},
			}},
		})
		u, err := repo.UpsertBySub(context.Background(), &models.User{Sub: "kc-1", Email: "a@b.fr", Role: models.RoleViewer})
		require.NoError(mt, err)
		assert.Equal(mt, "editor", u.Role)
	})

	mt.Run("get missing returns nil", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "lde.users", mtest.FirstBatch))
		u, err := repo.GetBySub(context.Background(), "nope")
		require.NoError(mt, err)
		assert.Nil(mt, u)
	})

	mt.Run("set role on unknown user", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}})
		_, err := repo.SetRole(context.Background(), "nope", models.RoleAdmin)
		require.ErrorIs(mt, err, ErrNotFound)
	})
}
