package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sensorhub/backend/services/sensor-api/internal/models"
)

// AveragesCache keeps all-station averages per period token for a short TTL. Cached
// results may lag behind writes by up to the TTL.
type AveragesCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewAveragesCache returns redis-backed cache.
func NewAveragesCache(client redis.Cmdable, ttl time.Duration) *AveragesCache {
	return &AveragesCache{client: client, ttl: ttl}
}

func (c *AveragesCache) key(periodToken string) string {
	return fmt.Sprintf("sensors:averages:%s", periodToken)
}

// Get returns cached averages; ok is false on a miss.
func (c *AveragesCache) Get(ctx context.Context, periodToken string) ([]models.StationAverage, bool, error) {
	raw, err := c.client.Get(ctx, c.key(periodToken)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var averages []models.StationAverage
	if err := json.Unmarshal(raw, &averages); err != nil {
		return nil, false, err
	}
	if averages == nil {
		averages = []models.StationAverage{}
	}
	return averages, true, nil
}

// Set caches averages for the configured TTL.
func (c *AveragesCache) Set(ctx context.Context, periodToken string, averages []models.StationAverage) error {
	data, err := json.Marshal(averages)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(periodToken), data, c.ttl).Err()
}
