package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tile-timelapse/internal/common"
)

const (
	// SnapshotExt is the extension of stored snapshots
	SnapshotExt = ".png"

	// AnimationExt is the extension of the per-region animation
	AnimationExt = ".gif"

	// LockFilename is the per-region lock file
	LockFilename = ".lock"
)

// SnapshotFilename creates the file name of a snapshot taken at t
// Format: {YYYYMMDD HHMMSS}.png
func SnapshotFilename(t time.Time) string {
	return common.FormatSnapshot(t) + SnapshotExt
}

// SnapshotName strips the extension from a snapshot file name.
// ok is false for files that are not snapshots.
func SnapshotName(filename string) (string, bool) {
	if !strings.EqualFold(filepath.Ext(filename), SnapshotExt) || strings.HasPrefix(filename, ".") {
		return "", false
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	if name == "" {
		return "", false
	}
	return name, true
}

// AnimationFilename creates the animation file name of a region
// Format: {region}.gif
func AnimationFilename(region string) string {
	return region + AnimationExt
}

// RegionDir returns the directory holding a region's snapshots and animation
func RegionDir(outputDir, region string) (string, error) {
	if err := ValidateRegionName(region); err != nil {
		return "", err
	}
	dir := filepath.Join(outputDir, region)
	if err := ValidatePath(outputDir, dir); err != nil {
		return "", err
	}
	return dir, nil
}

// ValidateRegionName rejects names that cannot be used as a single directory name
func ValidateRegionName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("region name is empty")
	case name != strings.TrimSpace(name):
		return fmt.Errorf("region name %q has leading or trailing whitespace", name)
	case name == "." || name == "..":
		return fmt.Errorf("region name %q is not allowed", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("region name %q must not contain path separators", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("region name contains a NUL byte")
	}
	return nil
}

// ValidatePath ensures filePath stays within baseDir
func ValidatePath(baseDir, filePath string) error {
	if baseDir == "" || filePath == "" {
		return fmt.Errorf("base directory or file path is empty")
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for base directory: %w", err)
	}
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for file: %w", err)
	}

	relPath, err := filepath.Rel(absBase, absFile)
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}

	// Check for path traversal attempts
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal attempt detected: %s is outside %s", filePath, baseDir)
	}
	return nil
}
