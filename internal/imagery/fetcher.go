package imagery

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"tile-timelapse/internal/cache"
	"tile-timelapse/internal/common"
	"tile-timelapse/internal/logging"
	"tile-timelapse/internal/tiles"
)

// TileSource fetches the raw bytes of one tile
type TileSource interface {
	FetchTile(ctx context.Context, coord common.TileCoord) ([]byte, error)
}

// TileFetchError records why a tile is missing. It is attached to the
// TileImage and never returned from FetchAll.
type TileFetchError struct {
	Coord common.TileCoord
	Err   error
}

func (e *TileFetchError) Error() string {
	return fmt.Sprintf("tile %s: %v", e.Coord, e.Err)
}

func (e *TileFetchError) Unwrap() error {
	return e.Err
}

// TileImage is the outcome of fetching one tile. A nil Image marks the tile as missing.
type TileImage struct {
	Coord common.TileCoord
	Image *image.NRGBA
	Err   error
}

// Missing reports whether the tile contributes nothing to the canvas
func (t TileImage) Missing() bool {
	return t.Image == nil
}

// TileSet holds one result per requested coordinate
type TileSet map[common.TileCoord]TileImage

// MissingCount returns how many tiles failed
func (s TileSet) MissingCount() int {
	n := 0
	for _, t := range s {
		if t.Missing() {
			n++
		}
	}
	return n
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	// Workers bounds concurrent requests; 0 issues all of them at once
	Workers  int
	TileSize int
	Cache    *cache.TileCache
	Logger   *slog.Logger
}

// Fetcher downloads and decodes the tiles of one region concurrently
type Fetcher struct {
	source   TileSource
	workers  int
	tileSize int
	cache    *cache.TileCache
	logger   *slog.Logger
}

// NewFetcher creates a new tile fetcher
func NewFetcher(source TileSource, opts FetcherOptions) *Fetcher {
	tileSize := opts.TileSize
	if tileSize <= 0 {
		tileSize = common.DefaultTileSize
	}
	workers := opts.Workers
	if workers < 0 {
		workers = 0
	}
	return &Fetcher{
		source:   source,
		workers:  workers,
		tileSize: tileSize,
		cache:    opts.Cache,
		logger:   logging.WithComponent(opts.Logger, "fetcher"),
	}
}

// FetchAll requests every coordinate concurrently and waits for all of them.
// A failing tile is logged and recorded as missing; it never cancels its siblings.
// onProgress, when set, is called after each tile resolves.
func (f *Fetcher) FetchAll(ctx context.Context, coords []common.TileCoord, onProgress func(completed, total int)) TileSet {
	total := len(coords)
	results := make([]TileImage, total)

	var sem *semaphore.Weighted
	if f.workers > 0 {
		sem = semaphore.NewWeighted(int64(f.workers))
	}

	var completed int64
	var wg sync.WaitGroup
	for i, coord := range coords {
		wg.Add(1)
		go func(i int, coord common.TileCoord) {
			defer wg.Done()
			defer func() {
				done := atomic.AddInt64(&completed, 1)
				if onProgress != nil {
					onProgress(int(done), total)
				}
			}()

			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					results[i] = f.missing(coord, err)
					return
				}
				defer sem.Release(1)
			}

			img, err := f.fetchOne(ctx, coord)
			if err != nil {
				results[i] = f.missing(coord, err)
				return
			}
			results[i] = TileImage{Coord: coord, Image: img}
		}(i, coord)
	}
	wg.Wait()

	set := make(TileSet, total)
	for _, r := range results {
		set[r.Coord] = r
	}
	return set
}

func (f *Fetcher) fetchOne(ctx context.Context, coord common.TileCoord) (*image.NRGBA, error) {
	data, ok := f.cache.Get(coord)
	if !ok {
		var err error
		data, err = f.source.FetchTile(ctx, coord)
		if err != nil {
			return nil, err
		}
	}

	img, err := tiles.Decode(data, f.tileSize)
	if err != nil {
		return nil, err
	}
	if !ok {
		f.cache.Set(coord, data)
	}
	return img, nil
}

func (f *Fetcher) missing(coord common.TileCoord, err error) TileImage {
	f.logger.Warn("tile missing", logging.FieldTile, coord.String(), logging.Error(err))
	return TileImage{Coord: coord, Err: &TileFetchError{Coord: coord, Err: err}}
}
