package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"tile-timelapse/internal/common"
)

// TileCache keeps raw tile bytes for the duration of one batch so that
// regions sharing tiles do not download them twice. It is never persisted:
// the next batch must observe the live surface.
type TileCache struct {
	entries *lru.Cache[common.TileCoord, []byte]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewTileCache creates a cache holding at most maxEntries tiles.
// A non-positive size returns a nil cache, which is valid and always misses.
func NewTileCache(maxEntries int) (*TileCache, error) {
	if maxEntries <= 0 {
		return nil, nil
	}
	entries, err := lru.New[common.TileCoord, []byte](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile cache: %w", err)
	}
	return &TileCache{entries: entries}, nil
}

// Get retrieves a tile from cache
func (c *TileCache) Get(coord common.TileCoord) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, ok := c.entries.Get(coord)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return data, ok
}

// Set stores a tile in cache
func (c *TileCache) Set(coord common.TileCoord, data []byte) {
	if c == nil || len(data) == 0 {
		return
	}
	c.entries.Add(coord, data)
}

// Stats returns cache statistics
func (c *TileCache) Stats() (entries int, hits, misses int64) {
	if c == nil {
		return 0, 0, 0
	}
	return c.entries.Len(), c.hits.Load(), c.misses.Load()
}

// Clear removes all cached tiles
func (c *TileCache) Clear() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
