package config

import (
	"tile-timelapse/internal/common"
	"tile-timelapse/internal/palette"
)

const (
	defaultOutputDir      = "~/.local/share/tile-timelapse/output"
	defaultLogDir         = "~/.local/share/tile-timelapse/logs"
	defaultHistoryDB      = "~/.local/share/tile-timelapse/history.db"
	defaultRequestTimeout = 30
	defaultCacheEntries   = 256
	defaultFrameDelayMS   = 100
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultPosthogHost    = "https://us.i.posthog.com"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Tiles: Tiles{
			BaseURL:        common.DefaultTileBaseURL,
			TileSize:       common.DefaultTileSize,
			RequestTimeout: defaultRequestTimeout,
			UserAgent:      common.DefaultUserAgent,
			CacheEntries:   defaultCacheEntries,
		},
		Snapshots: Snapshots{
			Timezone: common.DefaultTimezone,
			Colors:   palette.DefaultColors,
		},
		Animation: Animation{
			FrameDelayMS: defaultFrameDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Telemetry: Telemetry{
			PosthogHost: defaultPosthogHost,
		},
	}
}
