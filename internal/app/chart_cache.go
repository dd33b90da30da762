package app

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coocood/freecache"

	"weightlog/internal/chart"
)

// ChartCache memoizes built chart series per (owner, generation, mode,
// bounds). Mutating a record bumps the owner's generation, which orphans
// every cached series for that owner; orphans age out via the TTL.
type ChartCache struct {
	cache      *freecache.Cache
	ttlSeconds int
}

// NewChartCache creates a cache of roughly size bytes with the given
// entry TTL.
func NewChartCache(size int, ttl time.Duration) *ChartCache {
	return &ChartCache{
		cache:      freecache.NewCache(size),
		ttlSeconds: int(ttl.Seconds()),
	}
}

// Get returns the cached series for the key, if present.
func (c *ChartCache) Get(ownerID int64, mode chart.Mode, bounds chart.Bounds) ([]chart.Point, bool) {
	raw, err := c.cache.Get(c.seriesKey(ownerID, mode, bounds))
	if err != nil {
		return nil, false
	}
	var points []chart.Point
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, false
	}
	return points, true
}

// Set stores a built series under the key.
func (c *ChartCache) Set(ownerID int64, mode chart.Mode, bounds chart.Bounds, points []chart.Point) {
	raw, err := json.Marshal(points)
	if err != nil {
		return
	}
	_ = c.cache.Set(c.seriesKey(ownerID, mode, bounds), raw, c.ttlSeconds)
}

// Bump invalidates all cached series for the owner.
func (c *ChartCache) Bump(ownerID int64) {
	gen := c.generation(ownerID) + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, gen)
	_ = c.cache.Set(c.genKey(ownerID), buf, c.ttlSeconds)
}

func (c *ChartCache) generation(ownerID int64) uint64 {
	raw, err := c.cache.Get(c.genKey(ownerID))
	if err != nil || len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

func (c *ChartCache) genKey(ownerID int64) []byte {
	return []byte(fmt.Sprintf("gen|%d", ownerID))
}

func (c *ChartCache) seriesKey(ownerID int64, mode chart.Mode, bounds chart.Bounds) []byte {
	return []byte(fmt.Sprintf("series|%d|%d|%s|%s|%s", ownerID, c.generation(ownerID), mode, bounds.Start, bounds.End))
}
