package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/devconnector/internal/application/service"
)

const repoKeyPrefix = "github:repos:"

type RedisRepositoryCache struct {
	rdb *redis.Client
}

func NewRedisRepositoryCache(rdb *redis.Client) *RedisRepositoryCache {
	return &RedisRepositoryCache{rdb: rdb}
}

var _ service.RepositoryCache = (*RedisRepositoryCache)(nil)

func repoKey(username string) string {
	return repoKeyPrefix + strings.ToLower(username)
}

func (c *RedisRepositoryCache) GetRepositories(ctx context.Context, username string) ([]json.RawMessage, bool, error) {
	s, err := c.rdb.Get(ctx, repoKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var repos []json.RawMessage
	if err := json.Unmarshal(s, &repos); err != nil {
		// corrupt entry: drop it and report a miss
		_ = c.rdb.Del(ctx, repoKey(username)).Err()
		return nil, false, nil
	}
	return repos, true, nil
}

func (c *RedisRepositoryCache) SetRepositories(ctx context.Context, username string, repos []json.RawMessage, ttl time.Duration) error {
	b, err := json.Marshal(repos)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, repoKey(username), b, ttl).Err()
}

func (c *RedisRepositoryCache) DeleteRepositories(ctx context.Context, username string) error {
	return c.rdb.Del(ctx, repoKey(username)).Err()
}
