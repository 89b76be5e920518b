package composite

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/anicontrol/internal/anim"
	"github.com/ivlev/anicontrol/internal/apng"
	"github.com/ivlev/anicontrol/internal/source"
)

// APNGOptions configures DecodeAPNG.
type APNGOptions struct {
	Workers int                 // parallel frame decodes, <= 0 means one per frame
	Static  source.StaticLoader // used when the stream cannot be parsed
	Logger  *slog.Logger
}

// SequenceAPNG decodes every frame patch concurrently and then composites
// them in order, applying blend and dispose operators.
func SequenceAPNG(ctx context.Context, a *apng.Animation, workers int) ([]anim.Frame, error) {
	if len(a.Frames) == 0 {
		return nil, anim.ErrNoFrames
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, anim.ErrBadDimensions
	}
	if anim.CanvasTooLarge(a.Width, a.Height) {
		return nil, anim.ErrCanvasTooLarge
	}

	patches := make([]image.Image, len(a.Frames))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, f := range a.Frames {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &anim.DecodeError{Frame: i, Err: fmt.Errorf("apng: %v", r)}
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := f.Image()
			if err != nil {
				return &anim.DecodeError{Frame: i, Err: err}
			}
			patches[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := newCanvas(a.Width, a.Height)
	frames := make([]anim.Frame, 0, len(a.Frames))

	for i, f := range a.Frames {
		area := f.Bounds()

		dispose := f.Dispose
		if i == 0 && dispose == apng.DisposePrevious {
			dispose = apng.DisposeBackground
		}

		var previous *image.RGBA
		if dispose == apng.DisposePrevious {
			previous = c.save(area)
		}

		op := draw.Src
		if f.Blend == apng.BlendOver {
			op = draw.Over
		}
		c.paint(patches[i], area.Min, op)
		frames = append(frames, anim.Frame{Image: c.snapshot(), Delay: f.Delay})

		switch dispose {
		case apng.DisposeBackground:
			c.clear(area)
		case apng.DisposePrevious:
			c.restore(previous)
		}
	}
	return frames, nil
}

// DecodeAPNG decodes a PNG-family input. Anything that cannot be decoded as
// an animation is loaded as a single static frame instead; only a failure
// of that fallback is returned, as ErrStaticFallback.
func DecodeAPNG(ctx context.Context, in *source.Input, opts APNGOptions) (a *anim.Animation, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, &anim.DecodeError{Source: in.Name, Err: fmt.Errorf("apng: %v", r)}
		}
	}()

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	static := opts.Static
	if static == nil {
		static = source.DefaultStatic()
	}

	parsed, err := apng.Parse(in.Data)
	if err == nil {
		var frames []anim.Frame
		frames, err = SequenceAPNG(ctx, parsed, opts.Workers)
		if err == nil {
			return &anim.Animation{
				Frames:    frames,
				Width:     parsed.Width,
				Height:    parsed.Height,
				Source:    in.Name,
				Format:    anim.FormatAPNG,
				LoopCount: loopCount(parsed.NumPlays),
			}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	log.Warn("apng decode failed, loading as static image", "source", in.Name, "error", err)
	return source.LoadStatic(static, in, anim.FormatAPNG)
}

// loopCount maps APNG num_plays onto GIF loop count semantics.
func loopCount(numPlays int) int {
	switch {
	case numPlays == 0:
		return 0
	case numPlays == 1:
		return -1
	default:
		return numPlays - 1
	}
}
