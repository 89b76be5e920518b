package composite

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"time"

	"github.com/ivlev/anicontrol/internal/anim"
	"github.com/ivlev/anicontrol/internal/source"
)

// Disposal is the GIF graphic control disposal method.
type Disposal byte

const (
	DisposalUnspecified Disposal = 0
	DisposalNone        Disposal = gif.DisposalNone
	DisposalBackground  Disposal = gif.DisposalBackground
	DisposalPrevious    Disposal = gif.DisposalPrevious
)

// Patch is one raw GIF frame record. The image bounds are its placement
// on the logical screen.
type Patch struct {
	Image    image.Image
	Delay    time.Duration
	Disposal Disposal
}

// Patches converts a decoded GIF stream into raw frame records.
func Patches(g *gif.GIF) []Patch {
	patches := make([]Patch, len(g.Image))
	for i, img := range g.Image {
		p := Patch{Image: img}
		if i < len(g.Delay) {
			p.Delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		if i < len(g.Disposal) {
			p.Disposal = Disposal(g.Disposal[i])
		}
		patches[i] = p
	}
	return patches
}

// CompositeGIF replays patches over one accumulator canvas and returns a
// snapshot per patch, in order.
func CompositeGIF(width, height int, patches []Patch) ([]anim.Frame, error) {
	if len(patches) == 0 {
		return nil, anim.ErrNoFrames
	}
	if width <= 0 || height <= 0 {
		return nil, anim.ErrBadDimensions
	}
	if anim.CanvasTooLarge(width, height) {
		return nil, anim.ErrCanvasTooLarge
	}

	c := newCanvas(width, height)
	frames := make([]anim.Frame, 0, len(patches))

	for _, p := range patches {
		area := p.Image.Bounds()

		var previous *image.RGBA
		if p.Disposal == DisposalPrevious {
			previous = c.save(area)
		}

		c.paint(p.Image, area.Min, draw.Over)
		frames = append(frames, anim.Frame{
			Image: c.snapshot(),
			Delay: anim.EffectiveDelay(p.Delay),
		})

		switch p.Disposal {
		case DisposalBackground:
			c.clear(area)
		case DisposalPrevious:
			c.restore(previous)
		}
	}
	return frames, nil
}

// DecodeGIF decodes and composites a GIF input.
func DecodeGIF(in *source.Input) (a *anim.Animation, err error) {
	// image/gif can panic on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, &anim.DecodeError{Source: in.Name, Err: fmt.Errorf("gif: %v", r)}
		}
	}()

	g, err := gif.DecodeAll(bytes.NewReader(in.Data))
	if err != nil {
		return nil, &anim.DecodeError{Source: in.Name, Err: err}
	}

	frames, err := CompositeGIF(g.Config.Width, g.Config.Height, Patches(g))
	if err != nil {
		return nil, &anim.DecodeError{Source: in.Name, Err: err}
	}

	return &anim.Animation{
		Frames:    frames,
		Width:     g.Config.Width,
		Height:    g.Config.Height,
		Source:    in.Name,
		Format:    anim.FormatGIF,
		LoopCount: g.LoopCount,
	}, nil
}
