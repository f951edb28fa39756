// Package clock derives the greeting banner and the displayed time from the
// wall clock, and keeps them fresh on minute boundaries.
package clock

import (
	"sync"
	"time"
)

// Period is the spacing of recomputes after the first aligned one.
const Period = time.Minute

// State is what the banner shows. It is a pure function of the instant.
type State struct {
	Greeting string
	Time     string
}

// Greeting buckets a local hour of day.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 20:
		return "Good afternoon"
	case hour >= 20 && hour < 24:
		return "Good evening"
	default:
		return "Good night"
	}
}

// FormatTime renders hour:minute on a 12-hour clock, e.g. "9:05 PM".
func FormatTime(t time.Time) string {
	return t.Format("3:04 PM")
}

func Compute(t time.Time) State {
	return State{Greeting: Greeting(t.Hour()), Time: FormatTime(t)}
}

// DelayToNextMinute is the time left until the next minute boundary.
func DelayToNextMinute(t time.Time) time.Duration {
	ms := t.Nanosecond() / int(time.Millisecond)
	return time.Duration(60-t.Second())*time.Second - time.Duration(ms)*time.Millisecond
}

// Timer is a pending callback that can be canceled.
type Timer interface {
	Stop() bool
}

// Clock is the scheduler's time source.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// System is the real wall clock.
var System Clock = systemClock{}

// Scheduler recomputes State at the top of every minute and hands it to
// onUpdate. One Scheduler belongs to one view; Stop must be called when the
// view goes away. onUpdate runs with the scheduler locked and must not call
// Start or Stop.
type Scheduler struct {
	clock    Clock
	onUpdate func(State)

	mu      sync.Mutex
	running bool
	gen     uint64
	pending Timer
	next    time.Time
}

func NewScheduler(c Clock, onUpdate func(State)) *Scheduler {
	if c == nil {
		c = System
	}
	return &Scheduler{clock: c, onUpdate: onUpdate}
}

// Start emits the current state right away and arms a one-shot timer for the
// next minute boundary. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.gen++
	gen := s.gen
	now := s.clock.Now()
	s.next = now.Add(DelayToNextMinute(now))
	s.pending = s.clock.AfterFunc(s.next.Sub(now), func() { s.fire(gen) })
	s.onUpdate(Compute(now))
	s.mu.Unlock()
}

// Stop cancels whichever timer is pending. No update is emitted after Stop
// returns, even by a timer that was already firing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// fire recomputes and re-arms for the next period. The wake-up is measured
// from the intended deadline rather than from now, so timer latency does not
// accumulate; deadlines that were missed entirely are skipped. gen ties the
// callback to the Start that armed it, so a stale timer from before a
// remount is inert.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	s.next = s.next.Add(Period)
	for !s.next.After(now) {
		s.next = s.next.Add(Period)
	}
	s.pending = s.clock.AfterFunc(s.next.Sub(now), func() { s.fire(gen) })
	// Emitting under the lock means Stop cannot return mid-update.
	s.onUpdate(Compute(now))
	s.mu.Unlock()
}
