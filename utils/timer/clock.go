// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package timer provides a mockable wall clock and a repeating-timer helper.
// timecoind's slot loop reads "now" from Clock so it can be pinned in tests;
// tsdc and avalanche use the standard library's timers directly.
package timer

import (
	"sync"
	"time"
)

// Clock is a time source that can be swapped for a fake one in tests.
type Clock struct {
	mu     sync.Mutex
	faked  bool
	offset time.Duration
}

// Now returns the current time, adjusted by any offset set via Set.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.faked {
		return time.Now()
	}
	return time.Now().Add(c.offset)
}

// Set pins the clock to read t right now; every subsequent Now() call keeps
// advancing at real wall-clock speed from that point, which is what slot
// arithmetic in tests wants (deterministic start, real ticking).
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = true
	c.offset = t.Sub(time.Now())
}

// Repeater invokes f every period until Stop is called. The TSDC slot loop
// does not use it; it sleeps until each slot boundary instead.
type Repeater struct {
	period time.Duration
	f      func()

	stop chan struct{}
	once sync.Once
}

// NewRepeater starts a goroutine calling f every period. Call Stop to end it.
func NewRepeater(period time.Duration, f func()) *Repeater {
	r := &Repeater{period: period, f: f, stop: make(chan struct{})}
	go r.run()
	return r
}

func (r *Repeater) run() {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.f()
		case <-r.stop:
			return
		}
	}
}

// Stop ends the repeater. Safe to call more than once.
func (r *Repeater) Stop() {
	r.once.Do(func() { close(r.stop) })
}
