package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
)

// CachedStore layers a Redis cache in front of another Store. Not-found is
// deliberately not cached: provisioning may complete at any moment and a
// stale negative entry would keep a fresh tenant admin locked out.
type CachedStore struct {
	store   Store
	redis   *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedStore creates a new CachedStore. metrics may be nil.
func NewCachedStore(store Store, client *redis.Client, ttl time.Duration, metrics *observability.Metrics) *CachedStore {
	return &CachedStore{
		store:   store,
		redis:   client,
		ttl:     ttl,
		metrics: metrics,
	}
}

func cacheKey(identity auth.Identity) string {
	return fmt.Sprintf("profile:%s", identity)
}

// FindByIdentity retrieves the profile, serving from cache when possible.
// Cache failures fall through to the underlying store.
func (c *CachedStore) FindByIdentity(ctx context.Context, identity auth.Identity) (*Profile, error) {
	key := cacheKey(identity)

	data, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var p Profile
		if err := json.Unmarshal([]byte(data), &p); err == nil {
			if c.metrics != nil {
				c.metrics.ProfileCacheHitsTotal.Inc()
			}
			return &p, nil
		}
		// Corrupt entry: drop it and fall through
		c.redis.Del(ctx, key)
	}

	if c.metrics != nil {
		c.metrics.ProfileCacheMissesTotal.Inc()
	}

	p, err := c.store.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		c.redis.Set(ctx, key, encoded, c.ttl)
	}
	return p, nil
}

// Invalidate removes the cached profile for an identity, e.g. after the
// provisioning service reports a role change.
func (c *CachedStore) Invalidate(ctx context.Context, identity auth.Identity) error {
	if err := c.redis.Del(ctx, cacheKey(identity)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate profile cache: %w", err)
	}
	return nil
}
