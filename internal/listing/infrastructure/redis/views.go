package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ViewCounter keeps listing view counts in Redis; browsing traffic never
// touches the transactional store.
type ViewCounter struct {
	rdb *redis.Client
}

func NewViewCounter(rdb *redis.Client) *ViewCounter {
	return &ViewCounter{rdb: rdb}
}

func (c *ViewCounter) key(listingID int64) string {
	return fmt.Sprintf("listing:views:%d", listingID)
}

func (c *ViewCounter) Increment(ctx context.Context, listingID int64) (int64, error) {
	return c.rdb.Incr(ctx, c.key(listingID)).Result()
}
