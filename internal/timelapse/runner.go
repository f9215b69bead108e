// Package timelapse runs the per-region pipeline:
// fetch, composite, quantize, compare, persist, animate.
//
// A run always ends in an explicit outcome. An unchanged canvas is a
// skipped run, not an error, and a failing region never panics or aborts
// the caller's batch.
package timelapse

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tile-timelapse/internal/common"
	"tile-timelapse/internal/imagery"
	"tile-timelapse/internal/logging"
	"tile-timelapse/internal/palette"
	"tile-timelapse/internal/region"
	"tile-timelapse/internal/snapshot"
	"tile-timelapse/internal/utils/naming"
	"tile-timelapse/internal/video"
)

// ErrRegionLocked is returned when another process is working on the same region
var ErrRegionLocked = errors.New("region is locked by another run")

// Clock supplies capture times
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now returns f()
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock
var SystemClock Clock = ClockFunc(time.Now)

// TileFetcher resolves every tile of a region
type TileFetcher interface {
	FetchAll(ctx context.Context, coords []common.TileCoord, onProgress func(completed, total int)) imagery.TileSet
}

// Animator rebuilds a region's animation from its snapshot store
type Animator interface {
	Rebuild(source video.FrameSource) (string, int, error)
}

// Options configures a Runner
type Options struct {
	OutputDir string
	Location  *time.Location
	TileSize  int
	Colors    int
	Fetcher   TileFetcher
	Animator  Animator
	Clock     Clock
	Logger    *slog.Logger
	NewRunID  func() string
}

// Result describes how one region run ended
type Result struct {
	RunID        string
	Region       string
	Outcome      common.Outcome
	State        common.RunState
	// FailedIn is the state the run was in when it failed
	FailedIn     common.RunState
	Snapshot     string
	Animation    string
	TilesTotal   int
	TilesMissing int
	Frames       int
	Changed      image.Rectangle
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Runner executes region runs one at a time
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// NewRunner creates a runner; OutputDir, Fetcher and Animator are required
func NewRunner(opts Options) (*Runner, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("tile fetcher is required")
	}
	if opts.Animator == nil {
		return nil, fmt.Errorf("animator is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TileSize <= 0 {
		opts.TileSize = common.DefaultTileSize
	}
	if opts.Colors <= 0 {
		opts.Colors = palette.DefaultColors
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Runner{opts: opts, logger: logging.WithComponent(opts.Logger, "timelapse")}, nil
}

// RunTarget parses the corner descriptors and runs the region. Invalid
// descriptors end the run as failed with a *region.ConfigurationError.
func (r *Runner) RunTarget(ctx context.Context, name, start, end string) Result {
	reg, err := region.New(name, start, end, r.opts.TileSize)
	if err != nil {
		res := r.begin(name)
		res.State = common.StateConfiguring
		return r.fail(res, r.logger.With(logging.FieldRegion, name, logging.FieldRunID, res.RunID), err)
	}
	return r.Run(ctx, reg)
}

// Run executes the pipeline for one region. A panic inside the pipeline
// fails this region only.
func (r *Runner) Run(ctx context.Context, reg region.Region) (res Result) {
	res = r.begin(reg.Name)
	logger := r.logger.With(logging.FieldRegion, reg.Name, logging.FieldRunID, res.RunID)
	defer func() {
		if p := recover(); p != nil {
			res = r.fail(res, logger, fmt.Errorf("panic: %v", p))
		}
	}()
	return r.run(ctx, reg, &res, logger)
}

func (r *Runner) run(ctx context.Context, reg region.Region, res *Result, logger *slog.Logger) Result {
	store, err := snapshot.Open(r.opts.OutputDir, reg.Name, r.opts.Location)
	if err != nil {
		return r.fail(*res, logger, fmt.Errorf("open store: %w", err))
	}

	lock := flock.New(filepath.Join(store.Dir(), naming.LockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return r.fail(*res, logger, fmt.Errorf("lock region: %w", err))
	}
	if !locked {
		return r.fail(*res, logger, ErrRegionLocked)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release region lock", logging.Error(err))
		}
	}()

	coords := reg.Tiles()
	res.TilesTotal = len(coords)
	logger.Info("fetching tiles", "tiles", len(coords), "grid", fmt.Sprintf("%dx%d", reg.GridWidth(), reg.GridHeight()))
	set := r.opts.Fetcher.FetchAll(ctx, coords, func(completed, total int) {
		logger.Debug("tile progress", "completed", completed, "total", total)
	})
	if err := ctx.Err(); err != nil {
		return r.fail(*res, logger, fmt.Errorf("fetch: %w", err))
	}
	res.TilesMissing = set.MissingCount()
	if res.TilesMissing > 0 {
		logger.Warn("tiles missing", "missing", res.TilesMissing, "tiles", res.TilesTotal)
	}

	res.State = common.StateCompositing
	canvas := imagery.Composite(reg, set)

	res.State = common.StateQuantizing
	frame := palette.Quantize(canvas, r.opts.Colors)

	res.State = common.StateComparing
	var previous image.Image
	latest, err := store.Latest()
	if err != nil {
		return r.fail(*res, logger, fmt.Errorf("compare: %w", err))
	}
	if latest != nil {
		prev, err := store.Load(*latest)
		if err != nil {
			return r.fail(*res, logger, fmt.Errorf("compare: %w", err))
		}
		previous = prev
		res.Changed = snapshot.Diff(prev, frame)
	} else {
		res.Changed = frame.Bounds()
	}

	if !snapshot.Changed(previous, frame) {
		res.Outcome = common.OutcomeSkipped
		res.State = common.StateSkipped
		res.Snapshot = latest.Name
		res.FinishedAt = r.opts.Clock.Now()
		logger.Info("no change since last snapshot", "snapshot", latest.Name)
		return *res
	}

	res.State = common.StatePersisting
	snap, err := store.Append(frame, r.opts.Clock.Now())
	if err != nil {
		return r.fail(*res, logger, fmt.Errorf("persist: %w", err))
	}
	res.Snapshot = snap.Name
	logger.Info("snapshot stored", "snapshot", snap.Name, "changed", res.Changed.String())

	res.State = common.StateAnimating
	path, frames, err := r.opts.Animator.Rebuild(store)
	if err != nil {
		return r.fail(*res, logger, fmt.Errorf("animate: %w", err))
	}
	res.Animation = path
	res.Frames = frames

	res.Outcome = common.OutcomePersisted
	res.State = common.StateDone
	res.FinishedAt = r.opts.Clock.Now()
	logger.Info("animation updated", "path", path, "frames", frames)
	return *res
}

// Rebuild re-encodes a region's animation from its stored snapshots without fetching
func (r *Runner) Rebuild(name string) (string, int, error) {
	store, err := snapshot.Open(r.opts.OutputDir, name, r.opts.Location)
	if err != nil {
		return "", 0, err
	}

	lock := flock.New(filepath.Join(store.Dir(), naming.LockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return "", 0, fmt.Errorf("lock region: %w", err)
	}
	if !locked {
		return "", 0, ErrRegionLocked
	}
	defer lock.Unlock()

	return r.opts.Animator.Rebuild(store)
}

func (r *Runner) begin(name string) Result {
	return Result{
		RunID:     r.opts.NewRunID(),
		Region:    name,
		State:     common.StateFetching,
		StartedAt: r.opts.Clock.Now(),
	}
}

func (r *Runner) fail(res Result, logger *slog.Logger, err error) Result {
	logger.Error("region run failed", logging.FieldState, string(res.State), logging.Error(err))
	res.Err = err
	res.FailedIn = res.State
	res.Outcome = common.OutcomeFailed
	res.State = common.StateFailed
	res.FinishedAt = r.opts.Clock.Now()
	return res
}
