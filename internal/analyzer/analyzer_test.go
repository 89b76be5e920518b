package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ivlev/anicontrol/internal/anim"
)

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{1, []int{0}},
		{2, []int{0, 1}},
		{3, []int{0, 1, 2}},
		{4, []int{0, 1, 2, 3}},
		{5, []int{0, 1, 2, 3}},
		{9, []int{0, 2, 4, 6}},
		{100, []int{0, 25, 50, 75}},
	}

	for _, tt := range tests {
		got := SampleIndices(tt.n, DefaultSamples)
		if len(got) != len(tt.want) {
			t.Errorf("n=%d: expected %v, got %v", tt.n, tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("n=%d: expected %v, got %v", tt.n, tt.want, got)
				break
			}
		}
	}

	if got := SampleIndices(0, DefaultSamples); len(got) != 0 {
		t.Errorf("Expected no indices for empty animation, got %v", got)
	}
}

func frames(colors ...color.RGBA) *anim.Animation {
	a := &anim.Animation{Width: 20, Height: 10, Format: anim.FormatGIF}
	for _, c := range colors {
		img := image.NewRGBA(image.Rect(0, 0, 20, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 20; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		a.Frames = append(a.Frames, anim.Frame{Image: img})
	}
	return a
}

func TestStills(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	a := frames(red, red, red, red, red, red, red, red, red)

	stills, err := Stills(a, DefaultSamples)
	if err != nil {
		t.Fatalf("Stills failed: %v", err)
	}
	if len(stills) != 4 || stills[3].Index != 6 {
		t.Fatalf("Expected 4 stills ending at 6, got %d", len(stills))
	}

	raw, err := base64.StdEncoding.DecodeString(stills[0].Base64)
	if err != nil || !bytes.Equal(raw, stills[0].PNG) {
		t.Fatal("Base64 payload does not match PNG bytes")
	}
	img, err := png.Decode(bytes.NewReader(stills[0].PNG))
	if err != nil {
		t.Fatalf("PNG does not decode: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("Expected 20x10 still, got %v", img.Bounds())
	}
	if !strings.HasPrefix(stills[0].DataURL(), "data:image/png;base64,") {
		t.Errorf("Unexpected data URL prefix: %.30s", stills[0].DataURL())
	}
}

func TestStillsEmpty(t *testing.T) {
	if _, err := Stills(&anim.Animation{}, DefaultSamples); !errors.Is(err, anim.ErrAnalysis) {
		t.Errorf("Expected ErrAnalysis, got %v", err)
	}
}

func TestMotionAnalyzer(t *testing.T) {
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	m := NewMotionAnalyzer()

	static, _ := Stills(frames(black, black, black, black), DefaultSamples)
	text, err := m.Describe(context.Background(), static, "")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if !strings.Contains(text, "mostly static") {
		t.Errorf("Expected static description, got %q", text)
	}

	moving, _ := Stills(frames(black, white, black, white), DefaultSamples)
	text, err = m.Describe(context.Background(), moving, "")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if !strings.Contains(text, "strong motion") || !strings.Contains(text, "100.0%") {
		t.Errorf("Expected strong motion description, got %q", text)
	}

	single, _ := Stills(frames(black), DefaultSamples)
	text, _ = m.Describe(context.Background(), single, "")
	if !strings.Contains(text, "Single image") {
		t.Errorf("Expected single image description, got %q", text)
	}
}

func TestMotionAnalyzerRegion(t *testing.T) {
	a := frames(color.RGBA{A: 255}, color.RGBA{A: 255})
	a.Frames[1].Image.SetRGBA(4, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	m := NewMotionAnalyzer()
	c := m.compare(toGrayscale(a.Frames[0].Image), toGrayscale(a.Frames[1].Image))
	if c.Region != image.Rect(4, 3, 5, 4) {
		t.Errorf("Expected region (4,3)-(5,4), got %v", c.Region)
	}
	if c.Ratio != 1.0/200 {
		t.Errorf("Expected ratio 0.005, got %v", c.Ratio)
	}
}

func TestGeminiAnalyzerRequiresKey(t *testing.T) {
	g := NewGeminiAnalyzer("", "gemini-3-flash-preview")
	_, err := g.Describe(context.Background(), []Still{{Index: 0}}, "prompt")
	if !errors.Is(err, anim.ErrAnalysis) {
		t.Errorf("Expected ErrAnalysis without API key, got %v", err)
	}
}

func TestAnalyzerRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"motion", false},
		{"", false}, // default
		{"gemini", false},
		{"ocr", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			a, err := NewAnalyzer(tt.variant, Options{Model: "m"})

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if a == nil {
					t.Error("Expected analyzer, got nil")
				}
			}
		})
	}
}
