package config

import (
	"errors"
	"fmt"
	"net/url"

	"tile-timelapse/internal/common"
	"tile-timelapse/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTiles(); err != nil {
		return err
	}
	if err := c.validateSnapshots(); err != nil {
		return err
	}
	if err := c.validateAnimation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return validateTargetNames(c.Targets)
}

func (c *Config) validateTiles() error {
	u, err := url.Parse(c.Tiles.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("tiles.base_url must be an http(s) URL, got %q", c.Tiles.BaseURL)
	}
	if c.Tiles.TileSize <= 0 {
		return errors.New("tiles.tile_size must be positive")
	}
	if c.Tiles.Workers < 0 {
		return errors.New("tiles.workers must be 0 (unbounded) or positive")
	}
	if c.Tiles.RequestTimeout <= 0 {
		return errors.New("tiles.request_timeout must be positive")
	}
	if c.Tiles.CacheEntries < 0 {
		return errors.New("tiles.cache_entries must be 0 (disabled) or positive")
	}
	return nil
}

func (c *Config) validateSnapshots() error {
	if _, err := common.LoadTimezone(c.Snapshots.Timezone); err != nil {
		return fmt.Errorf("snapshots.timezone: %w", err)
	}
	if c.Snapshots.Colors < 2 || c.Snapshots.Colors > 256 {
		return fmt.Errorf("snapshots.colors must be between 2 and 256, got %d", c.Snapshots.Colors)
	}
	return nil
}

func (c *Config) validateAnimation() error {
	if c.Animation.FrameDelayMS < 10 {
		return errors.New("animation.frame_delay_ms must be at least 10")
	}
	if c.Animation.LoopCount < -1 {
		return errors.New("animation.loop_count must be -1 (play once), 0 (forever) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
