package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each session as JSON under <prefix><refresh> with a
// TTL matching its expiry, and indexes refresh tokens per user in a set
// under <prefix>sub:<sub> so they can be revoked together.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(refresh string) string { return r.prefix + refresh }

func (r *RedisRepository) subKey(sub string) string { return r.prefix + "sub:" + sub }

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	defaults(s)
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(s.RefreshToken), b, ttl)
		p.SAdd(ctx, r.subKey(s.Sub), s.RefreshToken)
		// the index lives as long as the newest session
		p.Expire(ctx, r.subKey(s.Sub), ttl)
		return nil
	})
	return err
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Expired(time.Now().UTC()) {
		_ = r.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	sess, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err == nil {
		var s Session
		if json.Unmarshal(sess, &s) == nil && s.Sub != "" {
			r.client.SRem(ctx, r.subKey(s.Sub), refresh)
		}
	}
	return r.client.Del(ctx, r.key(refresh)).Err()
}

func (r *RedisRepository) DeleteBySub(ctx context.Context, sub string) (int, error) {
	tokens, err := r.client.SMembers(ctx, r.subKey(sub)).Result()
	if err != nil {
		return 0, err
	}
	keys := []string{r.subKey(sub)}
	for _, t := range tokens {
		keys = append(keys, r.key(t))
	}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}
	// n counts the index key too when it existed
	if len(tokens) > 0 {
		n--
	}
	return int(n), nil
}
