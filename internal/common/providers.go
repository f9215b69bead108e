package common

// Tile endpoint defaults
const (
	// DefaultTileBaseURL is the wplace tile endpoint; tiles live at {base}/{x}/{y}.png
	DefaultTileBaseURL = "https://backend.wplace.live/files/s0/tiles"

	// DefaultTileSize is the edge length of one wplace tile in pixels
	DefaultTileSize = 1000

	// DefaultUserAgent identifies the tool to tile servers
	DefaultUserAgent = "tile-timelapse/1.0"

	// AppName is used for config, cache and log paths
	AppName = "tile-timelapse"
)
