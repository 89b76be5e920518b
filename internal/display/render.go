// Package display renders the current frame into an output surface.
package display

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/ivlev/anicontrol/internal/system"
)

// Renderer places frames on a fixed-size background. A zero Width or
// Height takes that dimension from the frame.
type Renderer struct {
	Width      int
	Height     int
	Background color.Color
	Scale      bool // shrink frames that do not fit, keeping aspect ratio

	pool *system.ImagePool
}

// NewRenderer parses the hex background colour.
func NewRenderer(width, height int, background string, scale bool) (*Renderer, error) {
	bg, err := colorful.Hex(background)
	if err != nil {
		return nil, fmt.Errorf("invalid background colour %q: %w", background, err)
	}
	return &Renderer{
		Width:      width,
		Height:     height,
		Background: bg,
		Scale:      scale,
		pool:       system.NewImagePool(),
	}, nil
}

// Size returns the surface size used for a frame of the given size.
func (r *Renderer) Size(frame image.Point) image.Point {
	size := image.Pt(r.Width, r.Height)
	if size.X <= 0 {
		size.X = frame.X
	}
	if size.Y <= 0 {
		size.Y = frame.Y
	}
	return size
}

// Render draws frame centered on the surface. The result comes from a pool
// and must be handed back with Release once the surface is done with it.
func (r *Renderer) Render(frame image.Image) *image.RGBA {
	fb := frame.Bounds()
	size := r.Size(fb.Size())

	dst := r.pool.Get(size)
	draw.Draw(dst, dst.Rect, image.NewUniform(r.Background), image.Point{}, draw.Src)

	target := fb.Size()
	if r.Scale && (target.X > size.X || target.Y > size.Y) {
		target = fit(target, size)
	}
	off := size.Sub(target).Div(2)
	area := image.Rectangle{Min: off, Max: off.Add(target)}

	if target == fb.Size() {
		draw.Draw(dst, area, frame, fb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, area, frame, fb, draw.Over, nil)
	}
	return dst
}

// Release returns a rendered buffer to the pool.
func (r *Renderer) Release(img *image.RGBA) {
	r.pool.Put(img)
}

// fit scales src down to fit in box, keeping the aspect ratio.
func fit(src, box image.Point) image.Point {
	if src.X*box.Y > src.Y*box.X {
		return image.Pt(box.X, max(1, src.Y*box.X/src.X))
	}
	return image.Pt(max(1, src.X*box.Y/src.Y), box.Y)
}
