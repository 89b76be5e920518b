// Package session holds the application state: the current animation, its
// playback and the last analysis.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/anicontrol/internal/analyzer"
	"github.com/ivlev/anicontrol/internal/anim"
	"github.com/ivlev/anicontrol/internal/engine"
	"github.com/ivlev/anicontrol/internal/playback"
	"github.com/ivlev/anicontrol/internal/source"
)

// Messages shown in place of an analysis result.
const (
	ProcessingMessage    = "AI is processing the animation sequence..."
	NoDescriptionMessage = "No description generated."
	FailureMessage       = "Failed to analyze animation. Check API Key or network."
)

var (
	ErrSuperseded  = errors.New("load superseded by a newer upload")
	ErrBusy        = errors.New("analysis already in progress")
	ErrNoAnimation = errors.New("no animation loaded")
)

// Loader decodes an input; *engine.Engine implements it.
type Loader interface {
	Load(ctx context.Context, in *source.Input) (*engine.Result, error)
}

// Options configures a Session.
type Options struct {
	Prompt  string
	Samples int
	Timeout time.Duration // per analysis request, 0 = none
	Log     *slog.Logger
}

type Session struct {
	loader   Loader
	sched    *playback.Scheduler
	analyzer analyzer.Analyzer
	opts     Options
	log      *slog.Logger

	// install orders scheduler loads; held without mu.
	install sync.Mutex

	mu      sync.Mutex
	current *engine.Result
	loading bool
	gen     uint64
	cancel  context.CancelFunc

	analyzing bool
	analysis  string
}

func New(loader Loader, sched *playback.Scheduler, a analyzer.Analyzer, opts Options) *Session {
	if opts.Samples <= 0 {
		opts.Samples = analyzer.DefaultSamples
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Session{loader: loader, sched: sched, analyzer: a, opts: opts, log: log}
}

// Load decodes in and, on success, installs it as the current animation
// with playback reset to frame 0, paused. A newer Load cancels this one.
// On failure the previous animation stays current.
func (s *Session) Load(ctx context.Context, in *source.Input) (*engine.Result, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	lctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loading = true
	s.analysis = ""
	s.mu.Unlock()

	s.sched.Pause()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.gen == gen {
			s.loading = false
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	res, err := s.loader.Load(lctx, in)

	s.install.Lock()
	defer s.install.Unlock()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.current = res
	s.mu.Unlock()

	// Outside mu: OnChange may block on a surface.
	s.sched.Load(res.Animation)
	return res, nil
}

// Loading reports whether a load is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Current returns the installed load result, or nil.
func (s *Session) Current() *engine.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Animation returns the installed animation, or nil.
func (s *Session) Animation() *anim.Animation {
	if res := s.Current(); res != nil {
		return res.Animation
	}
	return nil
}

func (s *Session) Scheduler() *playback.Scheduler { return s.sched }

// Analyze describes the current animation. Only one request runs at a
// time; a concurrent call gets ErrBusy. A failing backend yields
// FailureMessage together with an error wrapping anim.ErrAnalysis.
func (s *Session) Analyze(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return "", ErrBusy
	}
	if s.current == nil {
		s.mu.Unlock()
		return "", ErrNoAnimation
	}
	a := s.current.Animation
	s.analyzing = true
	s.analysis = ProcessingMessage
	s.mu.Unlock()

	text, err := s.describe(ctx, a)

	s.mu.Lock()
	s.analyzing = false
	if s.current != nil && s.current.Animation == a {
		s.analysis = text
	}
	s.mu.Unlock()
	return text, err
}

func (s *Session) describe(ctx context.Context, a *anim.Animation) (string, error) {
	stills, err := analyzer.Stills(a, s.opts.Samples)
	if err != nil {
		return FailureMessage, err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.analyzer.Describe(ctx, stills, s.opts.Prompt)
	if err != nil {
		if !errors.Is(err, anim.ErrAnalysis) {
			err = fmt.Errorf("%w: %w", anim.ErrAnalysis, err)
		}
		s.log.Warn("analysis failed", "source", a.Source, "error", err)
		return FailureMessage, err
	}
	if text == "" {
		text = NoDescriptionMessage
	}
	s.log.Info("analysis done", "source", a.Source, "stills", len(stills), "elapsed", time.Since(start))
	return text, nil
}

// Analysis returns the text to show for the last analysis.
func (s *Session) Analysis() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis
}

// Close stops playback and cancels an in-flight load.
func (s *Session) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.sched.Stop()
}
