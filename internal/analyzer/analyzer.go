// Package analyzer samples representative frames from an animation and
// hands them to a description backend.
package analyzer

import (
	"context"
	"fmt"
	"image"
)

// Still is one sampled frame, PNG encoded for transport.
type Still struct {
	Index  int
	Image  *image.RGBA
	PNG    []byte
	Base64 string
}

// DataURL returns the still as a data:image/png URL.
func (s Still) DataURL() string {
	return "data:image/png;base64," + s.Base64
}

// Analyzer is the interface for description strategies.
type Analyzer interface {
	Describe(ctx context.Context, stills []Still, prompt string) (string, error)
}

// Options carries backend settings shared by the variants.
type Options struct {
	APIKey string
	Model  string
}

// NewAnalyzer creates an analyzer for the specified variant.
func NewAnalyzer(variant string, opts Options) (Analyzer, error) {
	switch variant {
	case "motion", "":
		return NewMotionAnalyzer(), nil
	case "gemini":
		return NewGeminiAnalyzer(opts.APIKey, opts.Model), nil
	default:
		return nil, fmt.Errorf("unknown analyzer variant: %s", variant)
	}
}
