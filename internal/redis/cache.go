package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// availableDriversKey holds the cached booking-form driver list.
const availableDriversKey = "cache:drivers:available"

// AvailableDriversTTL bounds staleness of the booking-form list. The list is
// also invalidated eagerly on any availability, approval, or vehicle change.
const AvailableDriversTTL = 30 * time.Second

// CachedDriver is the subset of a driver shown on the booking form.
type CachedDriver struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	VehicleName string `json:"vehicle_name"`
	PlateNumber string `json:"plate_number"`
}

// DriverCache caches the available-driver list in Redis.
type DriverCache struct {
	client *redis.Client
}

// NewDriverCache creates a new DriverCache.
func NewDriverCache(client *redis.Client) *DriverCache {
	return &DriverCache{client: client}
}

// GetAvailable retrieves the cached driver list. Returns (nil, nil) on a
// cache miss.
func (c *DriverCache) GetAvailable(ctx context.Context) ([]CachedDriver, error) {
	data, err := c.client.Get(ctx, availableDriversKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var drivers []CachedDriver
	if err := json.Unmarshal(data, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// SetAvailable stores the driver list.
func (c *DriverCache) SetAvailable(ctx context.Context, drivers []CachedDriver) error {
	data, err := json.Marshal(drivers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availableDriversKey, data, AvailableDriversTTL).Err()
}

// InvalidateAvailable drops the cached list.
func (c *DriverCache) InvalidateAvailable(ctx context.Context) error {
	return c.client.Del(ctx, availableDriversKey).Err()
}
