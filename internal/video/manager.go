package video

import (
	"fmt"
	"image"
	"io"
	"log/slog"

	"tile-timelapse/internal/fileutil"
	"tile-timelapse/internal/logging"
	"tile-timelapse/internal/snapshot"
)

// FrameSource is the read side of a snapshot store
type FrameSource interface {
	List() ([]snapshot.Snapshot, error)
	Load(snapshot.Snapshot) (*image.Paletted, error)
	AnimationPath() string
}

// ProgressCallback reports frames loaded so far
type ProgressCallback func(current, total int)

// Config holds configuration for the video Manager
type Config struct {
	Options          ExportOptions
	Logger           *slog.Logger
	ProgressCallback ProgressCallback
}

// Manager rebuilds a region's animation from its stored snapshots
type Manager struct {
	encoder          *Encoder
	logger           *slog.Logger
	progressCallback ProgressCallback
}

// NewManager creates a new animation manager
func NewManager(cfg Config) *Manager {
	return &Manager{
		encoder:          NewEncoder(cfg.Options),
		logger:           logging.WithComponent(cfg.Logger, "animation"),
		progressCallback: cfg.ProgressCallback,
	}
}

// Rebuild encodes every snapshot, oldest first, and atomically replaces the
// animation file. It returns the animation path and the frame count.
func (m *Manager) Rebuild(source FrameSource) (string, int, error) {
	snapshots, err := source.List()
	if err != nil {
		return "", 0, err
	}
	if len(snapshots) == 0 {
		return "", 0, fmt.Errorf("no snapshots to animate")
	}

	frames := make([]*image.Paletted, 0, len(snapshots))
	for i, snap := range snapshots {
		frame, err := source.Load(snap)
		if err != nil {
			return "", 0, fmt.Errorf("load frame %d: %w", i, err)
		}
		frames = append(frames, frame)
		if m.progressCallback != nil {
			m.progressCallback(i+1, len(snapshots))
		}
	}

	path := source.AnimationPath()
	err = fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return m.encoder.EncodeGIF(w, frames)
	})
	if err != nil {
		return "", 0, fmt.Errorf("write animation: %w", err)
	}

	m.logger.Debug("animation rebuilt", "path", path, "frames", len(frames))
	return path, len(frames), nil
}
