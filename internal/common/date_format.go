package common

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // the default zone must resolve on hosts without a zoneinfo database
)

// Standard date format constants
const (
	// SnapshotLayout names snapshot files. It sorts lexicographically in
	// chronological order, which the snapshot store relies on.
	SnapshotLayout = "20060102 150405"

	// DisplayTime is the human-readable format used in CLI tables
	DisplayTime = "2006-01-02 15:04:05"

	// DefaultTimezone matches the UTC+9 clock the timelapses were first captured in
	DefaultTimezone = "Asia/Seoul"
)

// FormatSnapshot formats a capture time as a snapshot name (without extension)
func FormatSnapshot(t time.Time) string {
	return t.Format(SnapshotLayout)
}

// ParseSnapshot parses a snapshot name (without extension) in the given location
func ParseSnapshot(name string, loc *time.Location) (time.Time, error) {
	if name == "" {
		return time.Time{}, fmt.Errorf("snapshot name is empty")
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(SnapshotLayout, name, loc)
}

// FormatDisplay formats a time for CLI output
func FormatDisplay(t time.Time) string {
	return t.Format(DisplayTime)
}

// LoadTimezone resolves a configured zone name. Besides IANA names it accepts
// "Local", "UTC" and fixed offsets such as "+09:00".
func LoadTimezone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return time.Local, nil
	case strings.EqualFold(name, "local"):
		return time.Local, nil
	case strings.HasPrefix(name, "+") || strings.HasPrefix(name, "-"):
		offset, err := time.Parse("-07:00", name)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone offset %q: %w", name, err)
		}
		_, secs := offset.Zone()
		return time.FixedZone("UTC"+name, secs), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}
