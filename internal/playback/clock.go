package playback

import (
	"sync"
	"time"
)

// Clock delivers one tick per subscription. A subscriber that wants more
// ticks subscribes again from its callback. cancel may be called at any
// time, including after the tick fired.
type Clock interface {
	Subscribe(fn func(ts time.Time)) (cancel func())
}

// TickerClock fires each subscription once, Interval after it was made.
type TickerClock struct {
	Interval time.Duration
}

func NewTickerClock(interval time.Duration) *TickerClock {
	return &TickerClock{Interval: interval}
}

func (c *TickerClock) Subscribe(fn func(ts time.Time)) func() {
	t := time.AfterFunc(c.Interval, func() {
		fn(time.Now())
	})
	return func() { t.Stop() }
}

// ManualClock is driven by Fire. It is used by tests and by hosts that
// own their frame loop.
type ManualClock struct {
	mu   sync.Mutex
	next int
	subs map[int]func(time.Time)
}

func NewManualClock() *ManualClock {
	return &ManualClock{subs: make(map[int]func(time.Time))}
}

func (c *ManualClock) Subscribe(fn func(ts time.Time)) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Fire delivers ts to every current subscriber and drops their
// subscriptions. Subscriptions made during Fire wait for the next call.
func (c *ManualClock) Fire(ts time.Time) {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[int]func(time.Time))
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ts)
	}
}

// Pending reports the number of live subscriptions.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
