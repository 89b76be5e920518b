package anim

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat: neither signature nor extension is recognised.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDecode is the umbrella kind for every decode-time failure.
	ErrDecode = errors.New("decode error")

	// ErrStaticFallback: APNG parsing failed and the static loader failed too.
	ErrStaticFallback = errors.New("static image fallback failed")

	// ErrAnalysis: the external analysis collaborator failed or timed out.
	ErrAnalysis = errors.New("analysis failed")

	ErrNoFrames       = errors.New("no frames found")
	ErrBadDimensions  = errors.New("non-positive canvas dimensions")
	ErrCanvasTooLarge = errors.New("canvas exceeds size limit")
	ErrFrameSize      = errors.New("frame buffer does not match canvas")
)

// DecodeError describes a failed decode of one source.
type DecodeError struct {
	Source string
	Frame  int // frame index if the failure is frame specific, otherwise 0
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes every DecodeError match ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
