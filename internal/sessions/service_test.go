package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	r, err := svc.CreateSession(ctx, "sub-1", time.Hour)
	require.NoError(t, err)
	require.Len(t, r, 64)

	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "sub-1", sess.Sub)

	require.NoError(t, svc.DeleteRefresh(ctx, r))
	sess, err = svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestValidateRefresh_Expired(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	r, err := svc.CreateSession(ctx, "sub-1", time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	assert.Nil(t, sess)

	stored, _ := repo.GetByRefresh(ctx, r)
	assert.Nil(t, stored, "expired session should be cleaned up")
}

func TestRevokeAll(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	a, _ := svc.CreateSession(ctx, "sub-1", time.Hour)
	_, _ = svc.CreateSession(ctx, "sub-1", time.Hour)
	other, _ := svc.CreateSession(ctx, "sub-2", time.Hour)

	n, err := svc.RevokeAll(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	gone, _ := svc.ValidateRefresh(ctx, a)
	assert.Nil(t, gone)
	kept, _ := svc.ValidateRefresh(ctx, other)
	assert.NotNil(t, kept)
}
