package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually driven Clock. Time only moves through Advance or Set,
// and due callbacks run synchronously on the caller's goroutine.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	at    time.Time
	seq   uint64
	fn    func()
	done  bool
}

// NewFake returns a Fake clock frozen at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the frozen time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

// AfterFunc registers fn to run once the fake time reaches now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{clock: f, at: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)

	return t
}

// Pending returns the number of armed timers.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.timers)
}

// Advance moves time forward by d, firing every timer that becomes due in
// deadline order. Timers armed by a callback fire in the same call when their
// deadline is still within the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	f.Set(target)
}

// Set moves time to target, firing due timers along the way.
func (f *Fake) Set(target time.Time) {
	for {
		f.mu.Lock()
		t := f.nextDueLocked(target)
		if t == nil {
			if target.After(f.now) {
				f.now = target
			}
			f.mu.Unlock()
			return
		}

		if t.at.After(f.now) {
			f.now = t.at
		}
		t.done = true
		f.removeLocked(t)
		f.mu.Unlock()

		t.fn()
	}
}

func (f *Fake) nextDueLocked(target time.Time) *fakeTimer {
	if len(f.timers) == 0 {
		return nil
	}

	sort.SliceStable(f.timers, func(i, j int) bool {
		if f.timers[i].at.Equal(f.timers[j].at) {
			return f.timers[i].seq < f.timers[j].seq
		}
		return f.timers[i].at.Before(f.timers[j].at)
	})

	if f.timers[0].at.After(target) {
		return nil
	}

	return f.timers[0]
}

func (f *Fake) removeLocked(t *fakeTimer) {
	for i, cur := range f.timers {
		if cur == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// Stop cancels the timer.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}

	t.done = true
	t.clock.removeLocked(t)

	return true
}
