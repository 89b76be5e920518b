// Package playback steps through decoded frames in real time.
package playback

import (
	"sync"
	"time"

	"github.com/ivlev/anicontrol/internal/anim"
)

// Status is a consistent view of the scheduler.
type Status struct {
	Index   int
	Count   int
	Playing bool
	Speed   float64
	Frame   *anim.Frame // nil when nothing is loaded
}

// Scheduler advances the current frame on clock ticks while playing.
// All methods are safe for concurrent use; clock callbacks and control
// calls are serialised on one mutex.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	anim    *anim.Animation
	index   int
	playing bool
	speed   float64

	last    time.Time
	hasLast bool

	cancel func()
	gen    uint64 // bumped on every (un)subscribe, stale ticks are ignored

	onChange func(Status)
}

func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock, speed: 1.0}
}

// OnChange registers fn to be called after the index or animation changed.
// fn runs outside the scheduler lock.
func (s *Scheduler) OnChange(fn func(Status)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load installs a new animation: the clock subscription is torn down first,
// then playback resets to frame 0, paused.
func (s *Scheduler) Load(a *anim.Animation) {
	s.mu.Lock()
	s.unsubscribe()
	s.anim = a
	s.index = 0
	s.playing = false
	st := s.status()
	fn := s.onChange
	s.mu.Unlock()

	notify(fn, st)
}

// TogglePlay switches between playing and paused and reports the new state.
func (s *Scheduler) TogglePlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPlaying(!s.playing)
	return s.playing
}

func (s *Scheduler) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPlaying(true)
}

func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPlaying(false)
}

// SetFrame seeks to i, clamped to the frame range. The play state is kept.
func (s *Scheduler) SetFrame(i int) {
	s.mu.Lock()
	n := s.anim.FrameCount()
	if n == 0 {
		s.mu.Unlock()
		return
	}
	s.index = min(max(i, 0), n-1)
	st := s.status()
	fn := s.onChange
	s.mu.Unlock()

	notify(fn, st)
}

// Next pauses and steps forward one frame, wrapping at the end.
func (s *Scheduler) Next() { s.step(1) }

// Previous pauses and steps back one frame, wrapping at the start.
func (s *Scheduler) Previous() { s.step(-1) }

func (s *Scheduler) step(delta int) {
	s.mu.Lock()
	n := s.anim.FrameCount()
	if n == 0 {
		s.mu.Unlock()
		return
	}
	s.setPlaying(false)
	s.index = ((s.index+delta)%n + n) % n
	st := s.status()
	fn := s.onChange
	s.mu.Unlock()

	notify(fn, st)
}

// SetSpeed sets the playback rate, clamped to the control range.
func (s *Scheduler) SetSpeed(speed float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = min(max(speed, anim.MinSpeed), anim.MaxSpeed)
	return s.speed
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Stop releases the clock subscription and pauses.
func (s *Scheduler) Stop() {
	s.Pause()
}

func (s *Scheduler) tick(gen uint64, ts time.Time) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cancel = nil

	n := s.anim.FrameCount()
	if !s.playing || n <= 1 {
		s.hasLast = false
		s.mu.Unlock()
		return
	}

	advanced := false
	if !s.hasLast {
		s.last, s.hasLast = ts, true
	} else {
		delay := anim.EffectiveDelay(s.anim.Frames[s.index].Delay)
		if ts.Sub(s.last) >= time.Duration(float64(delay)/s.speed) {
			s.index = (s.index + 1) % n
			s.last = ts
			advanced = true
		}
	}
	s.subscribe()

	st := s.status()
	fn := s.onChange
	s.mu.Unlock()

	if advanced {
		notify(fn, st)
	}
}

// setPlaying must be called with s.mu held.
func (s *Scheduler) setPlaying(playing bool) {
	s.playing = playing
	s.unsubscribe()
	if playing && s.anim.FrameCount() > 1 {
		s.subscribe()
	}
}

func (s *Scheduler) subscribe() {
	s.gen++
	gen := s.gen
	s.cancel = s.clock.Subscribe(func(ts time.Time) {
		s.tick(gen, ts)
	})
}

func (s *Scheduler) unsubscribe() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.hasLast = false
}

func (s *Scheduler) status() Status {
	st := Status{
		Index:   s.index,
		Count:   s.anim.FrameCount(),
		Playing: s.playing,
		Speed:   s.speed,
	}
	if st.Count > 0 {
		st.Frame = &s.anim.Frames[s.index]
	}
	return st
}

func notify(fn func(Status), st Status) {
	if fn != nil {
		fn(st)
	}
}
