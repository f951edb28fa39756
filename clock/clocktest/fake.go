// Package clocktest provides a manually advanced clock.Clock.
package clocktest

import (
	"sort"
	"sync"
	"time"

	"mini-todo/clock"
)

type Fake struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	fake    *Fake
	at      time.Time
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func New(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) clock.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fake: f, at: f.now.Add(d), f: fn}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward, running every timer that comes due in
// order of its deadline. Callbacks run without the fake's lock held, so they
// may arm new timers; those fire too if they fall inside the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	end := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDueLocked(end)
		if next == nil {
			f.now = end
			f.mu.Unlock()
			return
		}
		next.stopped = true
		f.now = next.at
		f.mu.Unlock()
		next.f()
	}
}

func (f *Fake) nextDueLocked(end time.Time) *fakeTimer {
	live := f.timers[:0]
	for _, t := range f.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	f.timers = live
	sort.SliceStable(f.timers, func(i, j int) bool { return f.timers[i].at.Before(f.timers[j].at) })
	if len(f.timers) == 0 || f.timers[0].at.After(end) {
		return nil
	}
	return f.timers[0]
}

// Pending reports how many timers are armed and not yet fired or stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// NextIn reports the delay until the earliest pending timer.
func (f *Fake) NextIn() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *fakeTimer
	for _, t := range f.timers {
		if !t.stopped && (best == nil || t.at.Before(best.at)) {
			best = t
		}
	}
	if best == nil {
		return 0, false
	}
	return best.at.Sub(f.now), true
}
