// Package anim holds the decoded animation model shared by the decoders,
// the playback scheduler and the analysis sampler.
package anim

import (
	"image"
	"time"
)

// DefaultDelay is substituted for frames that carry no usable delay.
const DefaultDelay = 100 * time.Millisecond

// Playback speed range offered by the controls.
const (
	MinSpeed = 0.1
	MaxSpeed = 4.0
)

// MaxCanvasPixels bounds the canvas a decoder will allocate (8192x8192).
const MaxCanvasPixels = 1 << 26

// CanvasTooLarge reports whether a width x height canvas exceeds MaxCanvasPixels.
func CanvasTooLarge(width, height int) bool {
	return int64(width)*int64(height) > MaxCanvasPixels
}

// Format tags the container an animation was decoded from.
type Format string

const (
	FormatGIF  Format = "gif"
	FormatAPNG Format = "apng"
)

// Frame is a fully composited, self-contained rendering of the canvas.
// Image is private to the frame and must not be modified after decoding.
type Frame struct {
	Image *image.RGBA
	Delay time.Duration
}

// Animation is the result of one successful decode. It is never mutated
// after construction; a new upload replaces it wholesale.
type Animation struct {
	Frames    []Frame
	Width     int
	Height    int
	Source    string
	Format    Format
	LoopCount int // 0 = forever, -1 = play once (GIF semantics)
}

// FrameCount returns the number of frames.
func (a *Animation) FrameCount() int {
	if a == nil {
		return 0
	}
	return len(a.Frames)
}

// Duration is the nominal length of one loop with default delays applied.
func (a *Animation) Duration() time.Duration {
	var total time.Duration
	for _, f := range a.Frames {
		total += EffectiveDelay(f.Delay)
	}
	return total
}

// EffectiveDelay maps a zero or negative delay to DefaultDelay.
func EffectiveDelay(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDelay
	}
	return d
}

// Validate checks the invariants every installed animation must hold.
func (a *Animation) Validate() error {
	if a == nil || len(a.Frames) == 0 {
		return &DecodeError{Source: a.source(), Err: ErrNoFrames}
	}
	if a.Width <= 0 || a.Height <= 0 {
		return &DecodeError{Source: a.Source, Err: ErrBadDimensions}
	}
	for i, f := range a.Frames {
		if f.Image == nil || f.Image.Bounds().Dx() != a.Width || f.Image.Bounds().Dy() != a.Height {
			return &DecodeError{Source: a.Source, Frame: i, Err: ErrFrameSize}
		}
	}
	return nil
}

func (a *Animation) source() string {
	if a == nil {
		return ""
	}
	return a.Source
}
