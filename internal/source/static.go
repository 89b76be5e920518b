package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/anicontrol/internal/anim"
)

// StaticLoader decodes a whole file as one ordinary raster.
type StaticLoader interface {
	Load(in *Input) (image.Image, error)
}

// ImageLoader uses the registered image decoders.
type ImageLoader struct{}

func (ImageLoader) Load(in *Input) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// FitzLoader renders the first page through MuPDF, which tolerates PNG
// streams the standard decoder rejects (bad CRCs, trailing garbage).
type FitzLoader struct{}

func (FitzLoader) Load(in *Input) (image.Image, error) {
	doc, err := fitz.NewFromMemory(in.Data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, anim.ErrNoFrames
	}
	return doc.Image(0)
}

// Chain tries each loader in order and returns the first success.
type Chain []StaticLoader

func (c Chain) Load(in *Input) (image.Image, error) {
	var errs []error
	for _, l := range c {
		img, err := l.Load(in)
		if err == nil {
			return img, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no static loaders configured")
	}
	return nil, errors.Join(errs...)
}

// DefaultStatic is the loader used for the APNG static fallback.
func DefaultStatic() StaticLoader {
	return Chain{ImageLoader{}, FitzLoader{}}
}

// declaredSize reads the image size from the header without decoding pixels.
func declaredSize(data []byte) (width, height int, ok bool) {
	if len(data) >= 24 && strings.HasPrefix(string(data[:8]), pngMagic) && string(data[12:16]) == "IHDR" {
		return int(binary.BigEndian.Uint32(data[16:20])), int(binary.BigEndian.Uint32(data[20:24])), true
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// LoadStatic decodes in as a single frame animation with delay 0.
// Oversized images are rejected before any loader runs.
func LoadStatic(l StaticLoader, in *Input, format anim.Format) (*anim.Animation, error) {
	fail := func(err error) error {
		return &anim.DecodeError{Source: in.Name, Err: fmt.Errorf("%w: %w", anim.ErrStaticFallback, err)}
	}

	if w, h, ok := declaredSize(in.Data); ok && anim.CanvasTooLarge(w, h) {
		return nil, fail(fmt.Errorf("%w: %dx%d", anim.ErrCanvasTooLarge, w, h))
	}

	img, err := l.Load(in)
	if err != nil {
		return nil, fail(err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fail(anim.ErrBadDimensions)
	}
	if anim.CanvasTooLarge(b.Dx(), b.Dy()) {
		return nil, fail(anim.ErrCanvasTooLarge)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return &anim.Animation{
		Frames: []anim.Frame{{Image: rgba, Delay: 0}},
		Width:  b.Dx(),
		Height: b.Dy(),
		Source: in.Name,
		Format: format,
	}, nil
}
