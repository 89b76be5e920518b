// Package composite turns raw frame patches into self-contained frames.
package composite

import (
	"image"
	"image/draw"
)

// canvas is the accumulator for one decode pass. It is never shared.
type canvas struct {
	img *image.RGBA
}

func newCanvas(width, height int) *canvas {
	return &canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// clip limits r to the canvas.
func (c *canvas) clip(r image.Rectangle) image.Rectangle {
	return r.Intersect(c.img.Rect)
}

// paint draws src (placed at its own bounds, offset by at) onto the canvas.
// draw.Over keeps existing pixels under transparent source pixels.
func (c *canvas) paint(src image.Image, at image.Point, op draw.Op) {
	b := src.Bounds()
	dst := c.clip(b.Sub(b.Min).Add(at))
	if dst.Empty() {
		return
	}
	draw.Draw(c.img, dst, src, b.Min.Add(dst.Min.Sub(at)), op)
}

func (c *canvas) clear(r image.Rectangle) {
	draw.Draw(c.img, c.clip(r), image.Transparent, image.Point{}, draw.Src)
}

// save copies the region r so it can be restored after display.
func (c *canvas) save(r image.Rectangle) *image.RGBA {
	r = c.clip(r)
	saved := image.NewRGBA(r)
	draw.Draw(saved, r, c.img, r.Min, draw.Src)
	return saved
}

func (c *canvas) restore(saved *image.RGBA) {
	draw.Draw(c.img, saved.Rect, saved, saved.Rect.Min, draw.Src)
}

// snapshot returns an independent copy of the whole canvas.
func (c *canvas) snapshot() *image.RGBA {
	out := image.NewRGBA(c.img.Rect)
	copy(out.Pix, c.img.Pix)
	return out
}
