package config

import (
	"fmt"
	"os"
	"strings"

	"tile-timelapse/internal/common"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTiles()
	c.normalizeSnapshots()
	c.normalizeLogging()
	c.normalizeTelemetry()
	for i := range c.Targets {
		c.Targets[i].normalize()
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.TargetsFile, err = expandPath(strings.TrimSpace(c.Paths.TargetsFile)); err != nil {
		return fmt.Errorf("paths.targets_file: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTiles() {
	c.Tiles.BaseURL = strings.TrimRight(strings.TrimSpace(c.Tiles.BaseURL), "/")
	if c.Tiles.BaseURL == "" {
		c.Tiles.BaseURL = common.DefaultTileBaseURL
	}
	if c.Tiles.TileSize == 0 {
		c.Tiles.TileSize = common.DefaultTileSize
	}
	if c.Tiles.RequestTimeout == 0 {
		c.Tiles.RequestTimeout = defaultRequestTimeout
	}
	c.Tiles.UserAgent = strings.TrimSpace(c.Tiles.UserAgent)
	if c.Tiles.UserAgent == "" {
		c.Tiles.UserAgent = common.DefaultUserAgent
	}
}

func (c *Config) normalizeSnapshots() {
	c.Snapshots.Timezone = strings.TrimSpace(c.Snapshots.Timezone)
	if c.Snapshots.Timezone == "" {
		c.Snapshots.Timezone = common.DefaultTimezone
	}
	c.location = nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTelemetry() {
	if c.Telemetry.PosthogKey == "" {
		if value, ok := os.LookupEnv("TILE_TIMELAPSE_POSTHOG_KEY"); ok {
			c.Telemetry.PosthogKey = value
		}
	}
	c.Telemetry.PosthogKey = strings.TrimSpace(c.Telemetry.PosthogKey)
	c.Telemetry.PosthogHost = strings.TrimSpace(c.Telemetry.PosthogHost)
	if c.Telemetry.PosthogHost == "" {
		c.Telemetry.PosthogHost = defaultPosthogHost
	}
}
