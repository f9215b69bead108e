package video

import (
	"fmt"
	"image"
	"image/gif"
	"io"
	"time"
)

// DefaultFrameDelay is how long each snapshot stays on screen
const DefaultFrameDelay = 100 * time.Millisecond

// ExportOptions holds animation encoding settings
type ExportOptions struct {
	FrameDelay time.Duration
	// LoopCount follows image/gif: 0 loops forever, -1 plays once
	LoopCount int
}

// DefaultExportOptions returns default export options
func DefaultExportOptions() ExportOptions {
	return ExportOptions{FrameDelay: DefaultFrameDelay}
}

// Encoder writes looping GIF animations from paletted frames
type Encoder struct {
	options ExportOptions
}

// NewEncoder creates a new GIF encoder
func NewEncoder(opts ExportOptions) *Encoder {
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = DefaultFrameDelay
	}
	if opts.LoopCount < -1 {
		opts.LoopCount = -1
	}
	return &Encoder{options: opts}
}

// delay converts the frame delay to GIF's hundredths of a second
func (e *Encoder) delay() int {
	delay := int(e.options.FrameDelay / (10 * time.Millisecond))
	if delay < 1 {
		delay = 1
	}
	return delay
}

// EncodeGIF writes frames in order as one animation. Every frame is
// restored to background before the next one is drawn, and a palette
// entry with zero alpha becomes that frame's transparent index.
func (e *Encoder) EncodeGIF(w io.Writer, frames []*image.Paletted) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to export")
	}

	delay := e.delay()
	delays := make([]int, len(frames))
	disposal := make([]byte, len(frames))
	var bounds image.Rectangle
	for i, frame := range frames {
		if frame == nil {
			return fmt.Errorf("frame %d is nil", i)
		}
		if len(frame.Palette) == 0 {
			return fmt.Errorf("frame %d has an empty palette", i)
		}
		delays[i] = delay
		disposal[i] = gif.DisposalBackground
		bounds = bounds.Union(frame.Bounds())
	}

	return gif.EncodeAll(w, &gif.GIF{
		Image:     frames,
		Delay:     delays,
		Disposal:  disposal,
		LoopCount: e.options.LoopCount,
		Config: image.Config{
			Width:  bounds.Max.X,
			Height: bounds.Max.Y,
		},
	})
}
