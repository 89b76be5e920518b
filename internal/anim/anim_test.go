package anim

import (
	"errors"
	"image"
	"testing"
	"time"
)

func TestEffectiveDelay(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, DefaultDelay},
		{-5 * time.Millisecond, DefaultDelay},
		{40 * time.Millisecond, 40 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := EffectiveDelay(tt.in); got != tt.want {
			t.Errorf("EffectiveDelay(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	good := &Animation{
		Width: 4, Height: 3, Source: "a.gif", Format: FormatGIF,
		Frames: []Frame{{Image: image.NewRGBA(image.Rect(0, 0, 4, 3))}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if good.Duration() != DefaultDelay {
		t.Errorf("Expected duration %v, got %v", DefaultDelay, good.Duration())
	}

	empty := &Animation{Width: 4, Height: 3}
	if err := empty.Validate(); !errors.Is(err, ErrNoFrames) || !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrNoFrames wrapped as decode error, got %v", err)
	}

	mismatched := &Animation{
		Width: 5, Height: 3,
		Frames: []Frame{{Image: image.NewRGBA(image.Rect(0, 0, 4, 3))}},
	}
	err := mismatched.Validate()
	var de *DecodeError
	if !errors.As(err, &de) || !errors.Is(err, ErrFrameSize) {
		t.Errorf("Expected frame size DecodeError, got %v", err)
	}
}
