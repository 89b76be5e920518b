package analyzer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/ivlev/anicontrol/internal/anim"
)

// MotionAnalyzer describes an animation offline by comparing consecutive
// stills pixel by pixel.
type MotionAnalyzer struct {
	DiffThreshold uint8   // per-pixel grey level change counted as motion
	StaticRatio   float64 // changed share below which a pair is "static"
	StrongRatio   float64 // changed share above which a pair is "strong"
}

// NewMotionAnalyzer creates a motion analyzer with default settings
func NewMotionAnalyzer() *MotionAnalyzer {
	return &MotionAnalyzer{
		DiffThreshold: 24,
		StaticRatio:   0.01,
		StrongRatio:   0.25,
	}
}

// Change summarises the difference between two stills.
type Change struct {
	From, To int
	Ratio    float64         // share of pixels that changed
	Region   image.Rectangle // bounding box of changed pixels
}

func (m *MotionAnalyzer) Describe(ctx context.Context, stills []Still, prompt string) (string, error) {
	if len(stills) == 0 {
		return "", fmt.Errorf("%w: no frames to describe", anim.ErrAnalysis)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d frame(s) sampled (indices %s).", len(stills), joinIndices(stills))
	if len(stills) == 1 {
		b.WriteString(" Single image, nothing moves.")
		return b.String(), nil
	}

	prev := toGrayscale(stills[0].Image)
	var total float64
	for i := 1; i < len(stills); i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", anim.ErrAnalysis, err)
		}
		cur := toGrayscale(stills[i].Image)
		c := m.compare(prev, cur)
		c.From, c.To = stills[i-1].Index, stills[i].Index
		total += c.Ratio

		fmt.Fprintf(&b, " Frames %d->%d: %.1f%% of pixels changed", c.From, c.To, c.Ratio*100)
		if !c.Region.Empty() {
			fmt.Fprintf(&b, " within %v", c.Region)
		}
		b.WriteString(".")
		prev = cur
	}

	b.WriteString(" Overall: ")
	b.WriteString(m.level(total / float64(len(stills)-1)))
	b.WriteString(".")
	return b.String(), nil
}

func (m *MotionAnalyzer) level(ratio float64) string {
	switch {
	case ratio < m.StaticRatio:
		return "mostly static"
	case ratio > m.StrongRatio:
		return "strong motion"
	default:
		return "moderate motion"
	}
}

// compare counts pixels whose grey level differs by more than the threshold.
func (m *MotionAnalyzer) compare(a, b *image.Gray) Change {
	bounds := a.Bounds().Intersect(b.Bounds())
	if bounds.Empty() {
		return Change{}
	}

	changed := 0
	region := image.Rectangle{}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			va, vb := a.GrayAt(x, y).Y, b.GrayAt(x, y).Y
			d := va - vb
			if vb > va {
				d = vb - va
			}
			if d <= m.DiffThreshold {
				continue
			}
			changed++
			region = region.Union(image.Rect(x, y, x+1, y+1))
		}
	}

	return Change{
		Ratio:  float64(changed) / float64(bounds.Dx()*bounds.Dy()),
		Region: region,
	}
}

// toGrayscale converts an image to grayscale
func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}

	return gray
}

func joinIndices(stills []Still) string {
	parts := make([]string, len(stills))
	for i, s := range stills {
		parts[i] = fmt.Sprint(s.Index)
	}
	return strings.Join(parts, ", ")
}
