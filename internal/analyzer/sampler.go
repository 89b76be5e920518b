package analyzer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/ivlev/anicontrol/internal/anim"
)

// DefaultSamples is the number of frames sent for description.
const DefaultSamples = 4

// SampleIndices picks up to k evenly spaced frame indices out of n,
// always starting at 0.
func SampleIndices(n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	step := max(1, n/k)

	indices := make([]int, 0, k)
	for i := 0; i < n && len(indices) < k; i += step {
		indices = append(indices, i)
	}
	return indices
}

// Stills encodes the sampled frames of a.
func Stills(a *anim.Animation, k int) ([]Still, error) {
	indices := SampleIndices(a.FrameCount(), k)
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: %w", anim.ErrAnalysis, anim.ErrNoFrames)
	}

	stills := make([]Still, 0, len(indices))
	for _, i := range indices {
		img := a.Frames[i].Image

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: encode frame %d: %w", anim.ErrAnalysis, i, err)
		}
		stills = append(stills, Still{
			Index:  i,
			Image:  img,
			PNG:    buf.Bytes(),
			Base64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		})
	}
	return stills, nil
}
