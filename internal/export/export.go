// Package export writes composited frames to disk as numbered PNG files.
package export

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/anicontrol/internal/anim"
)

// ManifestName is the manifest file written next to the frames.
const ManifestName = "manifest.yaml"

// FrameName returns the file name of frame i.
func FrameName(i int) string {
	return fmt.Sprintf("frame_%05d.png", i)
}

// Frames writes every frame of a into dir and a manifest describing them.
// Up to workers files are encoded at once; workers <= 0 means no limit.
func Frames(ctx context.Context, a *anim.Animation, dir, id string, workers int) (*Manifest, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	m := &Manifest{
		ID:        id,
		Source:    a.Source,
		Format:    string(a.Format),
		Width:     a.Width,
		Height:    a.Height,
		LoopCount: a.LoopCount,
		Frames:    make([]ManifestFrame, len(a.Frames)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, f := range a.Frames {
		m.Frames[i] = ManifestFrame{File: FrameName(i), DelayMS: f.Delay.Milliseconds()}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writePNG(filepath.Join(dir, FrameName(i)), f)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := WriteManifest(m, filepath.Join(dir, ManifestName)); err != nil {
		return nil, err
	}
	return m, nil
}

func writePNG(path string, f anim.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, f.Image); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return out.Close()
}
