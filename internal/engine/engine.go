// Package engine turns an uploaded file into a validated animation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/anicontrol/internal/anim"
	"github.com/ivlev/anicontrol/internal/composite"
	"github.com/ivlev/anicontrol/internal/source"
	"github.com/ivlev/anicontrol/internal/system"
)

// Engine dispatches inputs to the matching decoder.
type Engine struct {
	Workers int                 // parallel APNG frame decodes
	Static  source.StaticLoader // APNG fallback, nil means source.DefaultStatic
	Log     *slog.Logger
}

func New(workers int, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Workers: workers, Log: log}
}

// Result is one completed load with its performance figures.
type Result struct {
	ID        string
	Animation *anim.Animation
	Elapsed   time.Duration
	RSS       uint64 // process resident memory after decoding, 0 if unknown
}

// Decode sniffs in and decodes it. The returned animation always satisfies
// anim.Animation.Validate.
func (e *Engine) Decode(ctx context.Context, in *source.Input) (*anim.Animation, error) {
	kind, err := in.Kind()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var a *anim.Animation
	switch kind {
	case source.GIF:
		a, err = composite.DecodeGIF(in)
	case source.PNG:
		a, err = composite.DecodeAPNG(ctx, in, composite.APNGOptions{
			Workers: e.Workers,
			Static:  e.Static,
			Logger:  e.log(),
		})
	}
	if err != nil {
		return nil, err
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Load decodes in and measures the run.
func (e *Engine) Load(ctx context.Context, in *source.Input) (*Result, error) {
	id := uuid.NewString()
	log := e.log().With("load_id", id, "source", in.Name)
	start := time.Now()

	log.Debug("decode started", "bytes", len(in.Data))
	a, err := e.Decode(ctx, in)
	if err != nil {
		log.Warn("decode failed", "error", err)
		return nil, err
	}

	res := &Result{ID: id, Animation: a, Elapsed: time.Since(start)}
	if rss, err := system.ProcessMemory(); err == nil {
		res.RSS = rss
	}

	log.Info("animation loaded",
		"format", a.Format,
		"frames", a.FrameCount(),
		"width", a.Width,
		"height", a.Height,
		"elapsed", res.Elapsed)
	return res, nil
}

func (e *Engine) log() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// Report formats the performance report printed with -stats.
func (r *Result) Report(build string) string {
	a := r.Animation
	fps := 0.0
	if secs := r.Elapsed.Seconds(); secs > 0 {
		fps = float64(a.FrameCount()) / secs
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Load: %s\n"+
			"Format: %s %dx%d\n"+
			"Frames: %d, loop length %s\n"+
			"Decode Time: %.3fs\n"+
			"Frames/s: %.1f\n"+
			"RSS: %.1f MiB\n"+
			"----------------------------\n",
		build, r.ID, a.Format, a.Width, a.Height,
		a.FrameCount(), a.Duration(),
		r.Elapsed.Seconds(), fps, float64(r.RSS)/(1<<20),
	)
}

// AppendBenchmark appends a one-line summary of r to the log at path.
func AppendBenchmark(path string, r *Result, build string) error {
	a := r.Animation
	entry := fmt.Sprintf("[%s] Build: %s | Input: %s | Format: %s | Frames: %d | Decode: %.3fs | RSS: %d\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(a.Source),
		a.Format,
		a.FrameCount(),
		r.Elapsed.Seconds(),
		r.RSS,
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
