package quiz

import (
	"sync"
	"time"
)

// Countdown owns the single active quiz countdown. Starting it cancels any
// run already in flight, so at most one countdown ticks at any instant.
// Callbacks are supplied per run and invoked from the countdown goroutine
// without the Countdown lock held, never synchronously from Start, so a
// caller may hold its own lock across Start.
type Countdown struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewCountdown builds a countdown ticking at interval. Production callers
// pass time.Second; tests shorten it.
func NewCountdown(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{interval: interval}
}

// Start begins a countdown from total seconds, cancelling any previous run.
// The new run emits its starting value as the first tick before the first
// interval elapses. A zero total expires immediately.
func (c *Countdown) Start(total int, onTick func(remaining int), onExpire func()) {
	if onTick == nil {
		onTick = func(int) {}
	}
	if onExpire == nil {
		onExpire = func() {}
	}

	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(total, stop, onTick, onExpire)
}

func (c *Countdown) run(total int, stop chan struct{}, onTick func(int), onExpire func()) {
	if !c.current(stop) {
		return
	}
	if total <= 0 {
		if c.clear(stop) {
			onTick(0)
			onExpire()
		}
		return
	}
	onTick(total)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	remaining := total
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stop != stop {
				// A newer run took over between the tick firing and now.
				c.mu.Unlock()
				return
			}
			remaining--
			if remaining <= 0 {
				c.stop = nil
				c.mu.Unlock()
				onTick(0)
				onExpire()
				return
			}
			c.mu.Unlock()
			onTick(remaining)
		}
	}
}

// Stop cancels the running countdown, if any. Safe to call repeatedly.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Running reports whether a countdown is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) current(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop == stop
}

// clear releases the countdown if stop is still the active run.
func (c *Countdown) clear(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != stop {
		return false
	}
	c.stop = nil
	return true
}
