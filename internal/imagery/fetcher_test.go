package imagery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-timelapse/internal/cache"
	"tile-timelapse/internal/common"
	"tile-timelapse/internal/tiles"
)

func solidTile(t *testing.T, size int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// tileServer serves the given tiles under /{x}/{y}.png and 404s the rest
func tileServer(t *testing.T, tileBytes map[common.TileCoord][]byte, hits *int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		var x, y int
		if _, err := fmt.Sscanf(r.URL.Path, "/%d/%d.png", &x, &y); err != nil {
			http.NotFound(w, r)
			return
		}
		data, ok := tileBytes[common.TileCoord{X: x, Y: y}]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll_MissingTileDoesNotAbortSiblings(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	srv := tileServer(t, map[common.TileCoord][]byte{
		{X: 0, Y: 0}: solidTile(t, 4, red),
		{X: 0, Y: 1}: []byte("not an image"),
	}, nil)

	fetcher := NewFetcher(tiles.NewClient(tiles.Options{BaseURL: srv.URL}), FetcherOptions{TileSize: 4})
	coords := []common.TileCoord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}

	var progress []int
	var mu sync.Mutex
	set := fetcher.FetchAll(context.Background(), coords, func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		progress = append(progress, completed)
	})

	require.Len(t, set, 3)
	assert.False(t, set[common.TileCoord{X: 0, Y: 0}].Missing())
	assert.Equal(t, red, set[common.TileCoord{X: 0, Y: 0}].Image.NRGBAAt(2, 2))
	assert.Equal(t, 2, set.MissingCount())

	notFound := set[common.TileCoord{X: 1, Y: 0}]
	require.True(t, notFound.Missing())
	var fetchErr *TileFetchError
	require.True(t, errors.As(notFound.Err, &fetchErr))
	assert.Equal(t, common.TileCoord{X: 1, Y: 0}, fetchErr.Coord)
	var statusErr *tiles.StatusError
	require.True(t, errors.As(notFound.Err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	assert.True(t, set[common.TileCoord{X: 0, Y: 1}].Missing())
	assert.ElementsMatch(t, []int{1, 2, 3}, progress)
}

func TestFetchAll_WrongSizeTileIsMissing(t *testing.T) {
	srv := tileServer(t, map[common.TileCoord][]byte{
		{X: 0, Y: 0}: solidTile(t, 3, color.NRGBA{G: 255, A: 255}),
	}, nil)

	fetcher := NewFetcher(tiles.NewClient(tiles.Options{BaseURL: srv.URL}), FetcherOptions{TileSize: 4})
	set := fetcher.FetchAll(context.Background(), []common.TileCoord{{X: 0, Y: 0}}, nil)
	tile := set[common.TileCoord{X: 0, Y: 0}]
	assert.True(t, tile.Missing())
	assert.ErrorContains(t, tile.Err, "expected 4x4")
}

func TestFetchAll_UsesBatchCache(t *testing.T) {
	var hits int64
	srv := tileServer(t, map[common.TileCoord][]byte{
		{X: 2, Y: 2}: solidTile(t, 4, color.NRGBA{B: 255, A: 255}),
	}, &hits)

	tileCache, err := cache.NewTileCache(8)
	require.NoError(t, err)
	fetcher := NewFetcher(tiles.NewClient(tiles.Options{BaseURL: srv.URL}), FetcherOptions{TileSize: 4, Cache: tileCache})

	coords := []common.TileCoord{{X: 2, Y: 2}}
	first := fetcher.FetchAll(context.Background(), coords, nil)
	second := fetcher.FetchAll(context.Background(), coords, nil)

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
	assert.Equal(t, first[coords[0]].Image.Pix, second[coords[0]].Image.Pix)
}

type slowSource struct {
	inFlight int64
	peak     int64
	data     []byte
}

func (s *slowSource) FetchTile(ctx context.Context, coord common.TileCoord) ([]byte, error) {
	now := atomic.AddInt64(&s.inFlight, 1)
	defer atomic.AddInt64(&s.inFlight, -1)
	for {
		peak := atomic.LoadInt64(&s.peak)
		if now <= peak || atomic.CompareAndSwapInt64(&s.peak, peak, now) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return s.data, nil
}

func TestFetchAll_WorkersBoundConcurrency(t *testing.T) {
	source := &slowSource{data: solidTile(t, 2, color.NRGBA{A: 255})}
	fetcher := NewFetcher(source, FetcherOptions{TileSize: 2, Workers: 2})

	coords := common.TileBounds{MinCol: 0, MaxCol: 2, MinRow: 0, MaxRow: 1}.Coords()
	set := fetcher.FetchAll(context.Background(), coords, nil)

	assert.Len(t, set, 6)
	assert.Zero(t, set.MissingCount())
	assert.LessOrEqual(t, atomic.LoadInt64(&source.peak), int64(2))
}

func TestFetchAll_CanceledContext(t *testing.T) {
	source := &slowSource{data: solidTile(t, 2, color.NRGBA{A: 255})}
	fetcher := NewFetcher(source, FetcherOptions{TileSize: 2, Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set := fetcher.FetchAll(ctx, []common.TileCoord{{X: 0, Y: 0}, {X: 1, Y: 0}}, nil)
	assert.Len(t, set, 2)
	assert.Equal(t, 2, set.MissingCount())
}
