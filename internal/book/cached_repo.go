package book

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "catalog:book:"

// CachedRepo is a read-through Redis cache in front of another Repository.
// Lookups by ISBN are served from Redis; every write goes to the inner store
// first and then evicts the key. Redis failures fall back to the inner store.
type CachedRepo struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedRepo(inner Repository, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedRepo {
	return &CachedRepo{inner: inner, client: client, ttl: ttl, log: log}
}

func cacheKey(isbn string) string {
	return cacheKeyPrefix + isbn
}

func (r *CachedRepo) FindAll(ctx context.Context) ([]Book, error) {
	return r.inner.FindAll(ctx)
}

func (r *CachedRepo) FindByISBN(ctx context.Context, isbn string) (Book, bool, error) {
	raw, err := r.client.Get(ctx, cacheKey(isbn)).Bytes()
	switch {
	case err == nil:
		var b Book
		if err := json.Unmarshal(raw, &b); err == nil {
			return b, true, nil
		}
		r.log.Warn("discarding undecodable cache entry", zap.String("isbn", isbn))
	case !errors.Is(err, redis.Nil):
		r.log.Warn("cache read failed", zap.String("isbn", isbn), zap.Error(err))
	}

	b, ok, err := r.inner.FindByISBN(ctx, isbn)
	if err != nil || !ok {
		return b, ok, err
	}

	if raw, err := json.Marshal(b); err == nil {
		if err := r.client.Set(ctx, cacheKey(isbn), raw, r.ttl).Err(); err != nil {
			r.log.Warn("cache write failed", zap.String("isbn", isbn), zap.Error(err))
		}
	}
	return b, true, nil
}

func (r *CachedRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	n, err := r.client.Exists(ctx, cacheKey(isbn)).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	if err != nil {
		r.log.Warn("cache read failed", zap.String("isbn", isbn), zap.Error(err))
	}
	return r.inner.ExistsByISBN(ctx, isbn)
}

func (r *CachedRepo) Save(ctx context.Context, b Book) (Book, error) {
	saved, err := r.inner.Save(ctx, b)
	if err != nil {
		return Book{}, err
	}
	r.evict(ctx, saved.ISBN)
	return saved, nil
}

func (r *CachedRepo) DeleteByISBN(ctx context.Context, isbn string) error {
	if err := r.inner.DeleteByISBN(ctx, isbn); err != nil {
		return err
	}
	r.evict(ctx, isbn)
	return nil
}

func (r *CachedRepo) DeleteAll(ctx context.Context) error {
	if err := r.inner.DeleteAll(ctx); err != nil {
		return err
	}
	iter := r.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.log.Warn("cache evict failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		r.log.Warn("cache scan failed", zap.Error(err))
	}
	return nil
}

func (r *CachedRepo) evict(ctx context.Context, isbn string) {
	if err := r.client.Del(ctx, cacheKey(isbn)).Err(); err != nil {
		r.log.Warn("cache evict failed", zap.String("isbn", isbn), zap.Error(err))
	}
}
