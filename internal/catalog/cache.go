package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tomasarrieta/shopwindow/pkg/logger"
	"github.com/tomasarrieta/shopwindow/pkg/redis"
)

const categoriesCacheKey = "categories"

type categoryLister interface {
	ListCategories(ctx context.Context) ([]Category, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(parts ...string) string
}

// CategoryCache is a read-through Redis cache for the category list. The
// list changes rarely and is fetched once per mount on the client, so a
// short TTL keeps the gateway off the remote API's back. Cache failures
// degrade to a direct fetch.
type CategoryCache struct {
	client categoryLister
	store  cacheStore
	ttl    time.Duration
	logg   *logger.Logger
}

// NewCategoryCache wraps the given lister. A nil store disables caching.
func NewCategoryCache(client categoryLister, store *redis.Client, ttl time.Duration, logg *logger.Logger) *CategoryCache {
	cache := &CategoryCache{client: client, ttl: ttl, logg: logg}
	if store != nil {
		cache.store = store
	}
	return cache
}

// ListCategories returns the cached category list, refreshing it on a miss.
func (c *CategoryCache) ListCategories(ctx context.Context) ([]Category, error) {
	if c.store == nil {
		return c.client.ListCategories(ctx)
	}

	key := c.store.CatalogKey(categoriesCacheKey)
	if raw, err := c.store.Get(ctx, key); err == nil {
		var cached []Category
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
		// Corrupt entry: fall through to a fresh fetch and overwrite it.
		if c.logg != nil {
			c.logg.Warn(ctx, "discarding corrupt category cache entry")
		}
	} else if !redis.IsMiss(err) && c.logg != nil {
		c.logg.Warn(ctx, "category cache read failed, fetching directly")
	}

	categories, err := c.client.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(categories); jsonErr == nil {
		if setErr := c.store.Set(ctx, key, string(encoded), c.ttl); setErr != nil && c.logg != nil {
			c.logg.Warn(ctx, "category cache write failed")
		}
	}
	return categories, nil
}
