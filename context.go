package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tile-timelapse/internal/config"
	"tile-timelapse/internal/logging"
	"tile-timelapse/internal/timelapse"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// clock overrides the wall clock (tests)
	clock timelapse.Clock
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withApp builds the App for one command and shuts it down afterwards
func (c *commandContext) withApp(fn func(*App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	outputs := []string{"stderr"}
	if logFile := cfg.LogFile(); logFile != "" {
		outputs = append(outputs, logFile)
	}
	logger, logFiles, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
	if err != nil {
		return err
	}
	defer logFiles.Close()

	app, err := NewApp(cfg, logger, AppOptions{Clock: c.clock})
	if err != nil {
		return err
	}
	defer app.Shutdown()
	return fn(app)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
