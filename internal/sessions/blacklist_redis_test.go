package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestBlacklist_AddContains(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	bl := NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "access-token-1", 2*time.Second))
	ok, err := bl.Contains(ctx, "access-token-1")
	require.NoError(t, err)
	require.True(t, ok)

	m.FastForward(3 * time.Second)
	ok, err = bl.Contains(ctx, "access-token-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlacklist_WithoutRedisIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, bl := range []*Blacklist{nil, NewBlacklist(nil)} {
		require.NoError(t, bl.Add(ctx, "t", time.Second))
		ok, err := bl.Contains(ctx, "t")
		require.NoError(t, err)
		require.False(t, ok)
	}
}
