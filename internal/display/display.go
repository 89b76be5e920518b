package display

import (
	"log/slog"
	"sync"

	"github.com/ivlev/anicontrol/internal/playback"
)

// Display pushes the scheduler's current frame to a surface.
type Display struct {
	renderer *Renderer
	surface  Surface
	log      *slog.Logger

	mu    sync.Mutex // change callbacks may arrive from the clock and from controls
	shown int
}

func New(r *Renderer, s Surface, log *slog.Logger) *Display {
	if log == nil {
		log = slog.Default()
	}
	if s == nil {
		s = NopSurface{}
	}
	return &Display{renderer: r, surface: s, log: log}
}

// Show renders st.Frame. It is meant to be registered with
// Scheduler.OnChange; surface errors are logged, not returned.
func (d *Display) Show(st playback.Status) {
	if st.Frame == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	img := d.renderer.Render(st.Frame.Image)
	defer d.renderer.Release(img)

	if err := d.surface.Show(st.Index, img); err != nil {
		d.log.Warn("display surface rejected frame", "index", st.Index, "error", err)
		return
	}
	d.shown++
}

// Shown returns the number of frames delivered to the surface.
func (d *Display) Shown() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

func (d *Display) Close() error {
	return d.surface.Close()
}
