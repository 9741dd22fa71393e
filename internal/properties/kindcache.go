package properties

import (
	"context"
	"fmt"
	"time"

	"catalog-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

const kindCacheTTL = 12 * time.Hour

// KindCache is an optional read-through Redis cache for property kinds.
// A property's kind is immutable after creation, so cached entries never go
// stale. A nil cache (or nil client) is a no-op; Redis errors are treated as
// misses so the DB stays authoritative.
type KindCache struct {
	Rdb *redis.Client
}

func (c *KindCache) get(ctx context.Context, key string) (domain.PropertyKind, bool) {
	if c == nil || c.Rdb == nil {
		return "", false
	}
	v, err := c.Rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return domain.PropertyKind(v), true
}

func (c *KindCache) set(ctx context.Context, key string, kind domain.PropertyKind) {
	if c == nil || c.Rdb == nil {
		return
	}
	c.Rdb.Set(ctx, key, string(kind), kindCacheTTL)
}

func nameKey(name string) string {
	return "propkind:name:" + name
}

func idKey(id int64) string {
	return fmt.Sprintf("propkind:id:%d", id)
}
