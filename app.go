package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"

	"tile-timelapse/internal/cache"
	"tile-timelapse/internal/common"
	"tile-timelapse/internal/config"
	"tile-timelapse/internal/history"
	"tile-timelapse/internal/imagery"
	"tile-timelapse/internal/logging"
	"tile-timelapse/internal/snapshot"
	"tile-timelapse/internal/tiles"
	"tile-timelapse/internal/timelapse"
	"tile-timelapse/internal/video"
)

// Linker flags
var (
	PostHogKey  string
	PostHogHost string
	AppVersion  string = "0.0.0-dev"
)

// App wires configuration, the tile client and the pipeline runner together
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	tileClient *tiles.Client
	tileCache  *cache.TileCache
	runner     *timelapse.Runner
	history    *history.Store
	phClient   posthog.Client
	distinctID string
}

// AppOptions overrides pieces of the wiring (tests)
type AppOptions struct {
	Clock timelapse.Clock
}

// NewApp creates a new App from a loaded configuration
func NewApp(cfg *config.Config, logger *slog.Logger, opts AppOptions) (*App, error) {
	logger = logging.OrNop(logger)

	tileCache, err := cache.NewTileCache(cfg.Tiles.CacheEntries)
	if err != nil {
		return nil, err
	}

	tileClient := tiles.NewClient(tiles.Options{
		BaseURL:         cfg.Tiles.BaseURL,
		UserAgent:       cfg.Tiles.UserAgent,
		Timeout:         cfg.RequestTimeout(),
		MaxConnsPerHost: cfg.Tiles.Workers,
	})

	fetcher := imagery.NewFetcher(tileClient, imagery.FetcherOptions{
		Workers:  cfg.Tiles.Workers,
		TileSize: cfg.Tiles.TileSize,
		Cache:    tileCache,
		Logger:   logger,
	})

	animator := video.NewManager(video.Config{
		Options: video.ExportOptions{
			FrameDelay: cfg.FrameDelay(),
			LoopCount:  cfg.Animation.LoopCount,
		},
		Logger: logger,
	})

	runner, err := timelapse.NewRunner(timelapse.Options{
		OutputDir: cfg.Paths.OutputDir,
		Location:  cfg.Location(),
		TileSize:  cfg.Tiles.TileSize,
		Colors:    cfg.Snapshots.Colors,
		Fetcher:   fetcher,
		Animator:  animator,
		Clock:     opts.Clock,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:        cfg,
		logger:     logging.WithComponent(logger, "app"),
		tileClient: tileClient,
		tileCache:  tileCache,
		runner:     runner,
		distinctID: installID(),
	}

	if cfg.Paths.HistoryDB != "" {
		store, err := history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			// The ledger is informational; runs proceed without it
			app.logger.Warn("history disabled", logging.Error(err))
		} else {
			app.history = store
		}
	}

	// A configured key wins over the one baked in at build time
	key, host := cfg.Telemetry.PosthogKey, cfg.Telemetry.PosthogHost
	if !cfg.TelemetryEnabled() {
		key = strings.TrimSpace(PostHogKey)
		if PostHogHost != "" {
			host = PostHogHost
		}
	}
	if key != "" {
		client, err := posthog.NewWithConfig(key, posthog.Config{Endpoint: host})
		if err != nil {
			app.logger.Warn("failed to initialize PostHog", logging.Error(err))
		} else {
			app.phClient = client
		}
	}

	return app, nil
}

// installID derives an anonymous, stable id for telemetry from the host name
func installID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(common.AppName+"/"+host)).String()
}

// Targets returns every configured target, enabled or not
func (a *App) Targets() ([]config.Target, error) {
	return a.cfg.AllTargets()
}

// RunTargets runs the named targets (all when names is empty) one after
// another. A failing target never stops the batch; disabled targets are
// reported without reaching the pipeline.
func (a *App) RunTargets(ctx context.Context, names []string) ([]timelapse.Result, error) {
	targets, err := a.Targets()
	if err != nil {
		return nil, err
	}
	targets, err = selectTargets(targets, names)
	if err != nil {
		return nil, err
	}

	// Tile bytes are shared within one batch only
	a.tileCache.Clear()
	defer a.tileCache.Clear()

	results := make([]timelapse.Result, 0, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if !target.IsEnabled() {
			a.logger.Info("target disabled", logging.FieldRegion, target.Name)
			results = append(results, timelapse.Result{
				Region:  target.Name,
				Outcome: common.OutcomeDisabled,
			})
			continue
		}

		res := a.runner.RunTarget(ctx, target.Name, target.Start, target.End)
		a.record(ctx, res)
		results = append(results, res)
	}

	entries, hits, misses := a.tileCache.Stats()
	a.logger.Debug("batch finished", "targets", len(results), "cache_entries", entries, "cache_hits", hits, "cache_misses", misses)
	return results, nil
}

func selectTargets(targets []config.Target, names []string) ([]config.Target, error) {
	if len(names) == 0 {
		return targets, nil
	}
	byName := make(map[string]config.Target, len(targets))
	for _, t := range targets {
		byName[t.Name] = t
	}
	selected := make([]config.Target, 0, len(names))
	for _, name := range names {
		t, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown target %q", name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}

func (a *App) record(ctx context.Context, res timelapse.Result) {
	run := history.Run{
		ID:           res.RunID,
		Region:       res.Region,
		Outcome:      res.Outcome,
		State:        res.State,
		Snapshot:     res.Snapshot,
		Animation:    res.Animation,
		TilesTotal:   res.TilesTotal,
		TilesMissing: res.TilesMissing,
		Frames:       res.Frames,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	if a.history != nil {
		if err := a.history.Record(ctx, run); err != nil {
			a.logger.Warn("failed to record run", logging.FieldRegion, res.Region, logging.Error(err))
		}
	}

	a.TrackEvent("region_run", map[string]interface{}{
		"outcome":       string(res.Outcome),
		"state":         string(res.State),
		"failed_in":     string(res.FailedIn),
		"tiles_total":   res.TilesTotal,
		"tiles_missing": res.TilesMissing,
		"frames":        res.Frames,
		"duration_ms":   res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
		"version":       AppVersion,
		"os":            goruntime.GOOS,
		"arch":          goruntime.GOARCH,
	})
}

// checkTarget rejects names that are not configured so that a typo never
// creates an empty region directory
func (a *App) checkTarget(name string) error {
	targets, err := a.Targets()
	if err != nil {
		return err
	}
	_, err = selectTargets(targets, []string{name})
	return err
}

// Rebuild re-encodes a target's animation from stored snapshots
func (a *App) Rebuild(name string) (string, int, error) {
	if err := a.checkTarget(name); err != nil {
		return "", 0, err
	}
	return a.runner.Rebuild(name)
}

// Snapshots lists a target's stored snapshots, oldest first
func (a *App) Snapshots(name string) ([]snapshot.Snapshot, error) {
	if err := a.checkTarget(name); err != nil {
		return nil, err
	}
	store, err := snapshot.Open(a.cfg.Paths.OutputDir, name, a.cfg.Location())
	if err != nil {
		return nil, err
	}
	return store.List()
}

// History returns recent runs, newest first
func (a *App) History(ctx context.Context, region string, limit int) ([]history.Run, error) {
	if a.history == nil {
		return nil, fmt.Errorf("run history is disabled (set paths.history_db)")
	}
	return a.history.List(ctx, region, limit)
}

// TrackEvent sends an event to PostHog
func (a *App) TrackEvent(event string, props map[string]interface{}) {
	if a.phClient != nil {
		a.phClient.Enqueue(posthog.Capture{
			DistinctId: a.distinctID,
			Event:      event,
			Properties: props,
			Timestamp:  time.Now(),
		})
	}
}

// Shutdown cleans up resources
func (a *App) Shutdown() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close history", logging.Error(err))
		}
	}
	if a.phClient != nil {
		a.phClient.Close()
	}
}
