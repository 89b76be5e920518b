package apng

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/ivlev/anicontrol/internal/apng/apngtest"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestParseFrames(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	data := apngtest.Build(8, 6, []apngtest.Frame{
		{Image: solid(8, 6, red), DelayNum: 1, DelayDen: 10},
		{Image: solid(2, 3, blue), Left: 5, Top: 2, DelayNum: 50, Dispose: 1, Blend: 1},
	}, true)

	a, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.Width != 8 || a.Height != 6 {
		t.Errorf("Expected 8x6 canvas, got %dx%d", a.Width, a.Height)
	}
	if len(a.Frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(a.Frames))
	}

	f0, f1 := a.Frames[0], a.Frames[1]
	if f0.Delay != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", f0.Delay)
	}
	// A zero denominator means hundredths of a second.
	if f1.Delay != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", f1.Delay)
	}
	if f1.Bounds() != image.Rect(5, 2, 7, 5) {
		t.Errorf("Unexpected frame bounds %v", f1.Bounds())
	}
	if f1.Dispose != DisposeBackground || f1.Blend != BlendOver {
		t.Errorf("Unexpected ops dispose=%d blend=%d", f1.Dispose, f1.Blend)
	}

	img, err := f1.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 3 {
		t.Errorf("Expected 2x3 patch, got %v", img.Bounds())
	}
	if r, g, b, _ := img.At(0, 0).RGBA(); r != 0 || g != 0 || b != 0xffff {
		t.Errorf("Expected blue patch, got %v", img.At(0, 0))
	}
}

func TestParseSkipsHiddenDefaultImage(t *testing.T) {
	data := apngtest.Build(4, 4, []apngtest.Frame{
		{Image: solid(4, 4, color.NRGBA{G: 255, A: 255})},
	}, false)

	a, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(a.Frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(a.Frames))
	}
	img, err := a.Frames[0].Image()
	if err != nil {
		t.Fatal(err)
	}
	if _, g, _, _ := img.At(1, 1).RGBA(); g != 0xffff {
		t.Errorf("Expected green frame, got %v", img.At(1, 1))
	}
}

func TestParseErrors(t *testing.T) {
	good := apngtest.Build(4, 4, []apngtest.Frame{{Image: solid(4, 4, color.NRGBA{A: 255})}}, true)

	corrupt := append([]byte(nil), good...)
	corrupt[len(Signature)+10] ^= 0xff // inside IHDR payload

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not png", []byte("GIF89a"), FormatError("not a PNG file")},
		{"static png", apngtest.Static(solid(2, 2, color.NRGBA{A: 255})), ErrNotAnimated},
		{"bad crc", corrupt, FormatError("bad CRC in IHDR")},
		{"truncated", good[:len(good)-6], FormatError("truncated chunk header")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseRejectsFrameOutsideCanvas(t *testing.T) {
	data := apngtest.Build(4, 4, []apngtest.Frame{
		{Image: solid(4, 4, color.NRGBA{A: 255})},
		{Image: solid(3, 3, color.NRGBA{A: 255}), Left: 2, Top: 2},
	}, true)
	if _, err := Parse(data); err == nil {
		t.Error("Expected error for frame outside canvas, got nil")
	}
}

func TestParseRejectsHugeCanvas(t *testing.T) {
	data := apngtest.Build(0x7FFFFFFF, 0x7FFFFFFF, []apngtest.Frame{
		{Image: solid(1, 1, color.NRGBA{R: 255, A: 255})},
	}, true)
	_, err := Parse(data)
	if !errors.Is(err, FormatError("canvas too large")) {
		t.Errorf("Expected canvas too large, got %v", err)
	}
}
