package logging

import "log/slog"

// Field keys shared by every component
const (
	FieldComponent = "component"
	FieldRegion    = "region"
	FieldRunID     = "run_id"
	FieldTile      = "tile"
	FieldState     = "state"
)

// Error wraps an error as the conventional "error" attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}
