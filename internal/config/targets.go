package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is one configured region: a name and its two corner descriptors.
type Target struct {
	Name    string `toml:"name" json:"name" yaml:"name"`
	Enabled *bool  `toml:"enabled" json:"enabled" yaml:"enabled"`
	Start   string `toml:"start" json:"start" yaml:"start"`
	End     string `toml:"end" json:"end" yaml:"end"`
}

// IsEnabled reports whether the target takes part in runs. Targets without
// an explicit enabled flag are enabled.
func (t Target) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

func (t *Target) normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Start = strings.TrimSpace(t.Start)
	t.End = strings.TrimSpace(t.End)
}

// targetsFile is the on-disk shape: {"targets": [...]}
type targetsFile struct {
	Targets []Target `json:"targets" yaml:"targets"`
}

// LoadTargets reads a targets file. .json and .yaml/.yml are supported.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	var file targetsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse targets file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse targets file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("targets file %s: unsupported extension (want .json, .yaml or .yml)", path)
	}

	for i := range file.Targets {
		file.Targets[i].normalize()
	}
	if err := validateTargetNames(file.Targets); err != nil {
		return nil, fmt.Errorf("targets file %s: %w", path, err)
	}
	return file.Targets, nil
}

// AllTargets returns the inline targets followed by those of the targets file.
func (c *Config) AllTargets() ([]Target, error) {
	targets := append([]Target{}, c.Targets...)
	if c.Paths.TargetsFile != "" {
		fromFile, err := LoadTargets(c.Paths.TargetsFile)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fromFile...)
	}
	if err := validateTargetNames(targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func validateTargetNames(targets []Target) error {
	seen := make(map[string]struct{}, len(targets))
	for i, t := range targets {
		if t.Name == "" {
			return fmt.Errorf("targets[%d]: name is required", i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("targets[%d]: duplicate target name %q", i, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}
