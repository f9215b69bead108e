package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tile-timelapse/internal/common"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	TargetsFile string `toml:"targets_file"`
	LogDir      string `toml:"log_dir"`
	HistoryDB   string `toml:"history_db"`
}

// Tiles contains tile endpoint and fetch settings.
type Tiles struct {
	BaseURL        string `toml:"base_url"`
	TileSize       int    `toml:"tile_size"`
	Workers        int    `toml:"workers"`
	RequestTimeout int    `toml:"request_timeout"`
	UserAgent      string `toml:"user_agent"`
	CacheEntries   int    `toml:"cache_entries"`
}

// Snapshots contains snapshot naming and palette settings.
type Snapshots struct {
	Timezone string `toml:"timezone"`
	Colors   int    `toml:"colors"`
}

// Animation contains GIF settings.
type Animation struct {
	FrameDelayMS int `toml:"frame_delay_ms"`
	LoopCount    int `toml:"loop_count"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Telemetry contains optional PostHog settings. An empty key disables it.
type Telemetry struct {
	PosthogKey  string `toml:"posthog_key"`
	PosthogHost string `toml:"posthog_host"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: output, targets file, logs and history database
//   - Tiles: endpoint, tile size, concurrency, timeouts and batch cache
//   - Snapshots: time zone for file names and palette size
//   - Animation: frame delay and loop count
//   - Logging: log format and level
//   - Telemetry: optional PostHog run events
//   - Targets: inline region targets
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tiles     Tiles     `toml:"tiles"`
	Snapshots Snapshots `toml:"snapshots"`
	Animation Animation `toml:"animation"`
	Logging   Logging   `toml:"logging"`
	Telemetry Telemetry `toml:"telemetry"`
	Targets   []Target  `toml:"targets"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/" + common.AppName + "/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(common.AppName + ".toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.LogDir}
	if c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Location returns the time zone snapshot names are written in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		loc, err := common.LoadTimezone(c.Snapshots.Timezone)
		if err != nil {
			return time.Local
		}
		c.location = loc
	}
	return c.location
}

// RequestTimeout returns the per-tile HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Tiles.RequestTimeout) * time.Second
}

// FrameDelay returns how long each animation frame is shown.
func (c *Config) FrameDelay() time.Duration {
	return time.Duration(c.Animation.FrameDelayMS) * time.Millisecond
}

// LogFile returns the log file path, or "" when file logging is off.
func (c *Config) LogFile() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, common.AppName+".log")
}

// TelemetryEnabled reports whether run events are sent to PostHog.
func (c *Config) TelemetryEnabled() bool {
	return strings.TrimSpace(c.Telemetry.PosthogKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
