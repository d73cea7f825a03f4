package book

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedRepo_ReadThroughAndEvict(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	client.Del(ctx, cacheKey(zarathustra.ISBN))

	inner := newSQLiteRepo(t)
	repo := NewCachedRepo(inner, client, time.Minute, zap.NewNop())

	created, err := repo.Save(ctx, zarathustra)
	require.NoError(t, err)

	found, ok, err := repo.FindByISBN(ctx, zarathustra.ISBN)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.ID, found.ID)

	n, err := client.Exists(ctx, cacheKey(zarathustra.ISBN)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "lookup should populate the cache")

	edit := found
	edit.Price = 7.90
	_, err = repo.Save(ctx, edit)
	require.NoError(t, err)

	n, err = client.Exists(ctx, cacheKey(zarathustra.ISBN)).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "save should evict the entry")

	found, _, err = repo.FindByISBN(ctx, zarathustra.ISBN)
	require.NoError(t, err)
	assert.Equal(t, 7.90, found.Price)

	require.NoError(t, repo.DeleteByISBN(ctx, zarathustra.ISBN))
	_, ok, err = repo.FindByISBN(ctx, zarathustra.ISBN)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedRepo_FallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	inner := newSQLiteRepo(t)
	repo := NewCachedRepo(inner, client, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := repo.Save(ctx, zarathustra)
	require.NoError(t, err)

	found, ok, err := repo.FindByISBN(ctx, zarathustra.ISBN)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, zarathustra.Title, found.Title)

	exists, err := repo.ExistsByISBN(ctx, zarathustra.ISBN)
	require.NoError(t, err)
	assert.True(t, exists)
}
