// Package revealtest provides in-memory doubles for the reveal scheduler's
// environment: a manual clock and a controllable intersection observer.
package revealtest

import (
	"sort"
	"sync"
	"time"

	"github.com/lumen-press/lumen/internal/reveal"
)

// ManualTimers runs callbacks only when Advance moves the clock past their
// due time. Callbacks due at the same instant run in scheduling order.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []timer
}

type timer struct {
	at  time.Duration
	seq int
	f   func()
}

// AfterFunc implements reveal.Timers.
func (m *ManualTimers) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	m.pending = append(m.pending, timer{at: m.now + d, seq: m.seq, f: f})
}

// Advance moves the clock forward by d and runs every callback that became
// due, in due-time order. Callbacks scheduled while advancing run too if
// they fall inside the window.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.pending, func(i, j int) bool {
			if m.pending[i].at != m.pending[j].at {
				return m.pending[i].at < m.pending[j].at
			}
			return m.pending[i].seq < m.pending[j].seq
		})
		if len(m.pending) == 0 || m.pending[0].at > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.now = next.at
		m.mu.Unlock()

		next.f()
	}
}

// Now returns the elapsed manual time.
func (m *ManualTimers) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of callbacks not yet run.
func (m *ManualTimers) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Env is a configurable reveal.Environment that records every observer it
// creates.
type Env struct {
	ReducedMotion  bool
	Mobile         bool
	NoIntersection bool

	mu        sync.Mutex
	observers []*Observer
}

// PrefersReducedMotion implements reveal.Environment.
func (e *Env) PrefersReducedMotion() bool { return e.ReducedMotion }

// IsMobile implements reveal.Environment.
func (e *Env) IsMobile() bool { return e.Mobile }

// SupportsIntersection implements reveal.Environment.
func (e *Env) SupportsIntersection() bool { return !e.NoIntersection }

// NewObserver implements reveal.Environment.
func (e *Env) NewObserver(opts reveal.ObserverOptions, callback func([]reveal.Entry)) reveal.Observer {
	obs := &Observer{Options: opts, callback: callback}
	e.mu.Lock()
	e.observers = append(e.observers, obs)
	e.mu.Unlock()
	return obs
}

// Observers returns every observer ever created, connected or not.
func (e *Env) Observers() []*Observer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Observer, len(e.observers))
	copy(out, e.observers)
	return out
}

// Active returns the observers that have not been disconnected.
func (e *Env) Active() []*Observer {
	var active []*Observer
	for _, obs := range e.Observers() {
		if !obs.Disconnected() {
			active = append(active, obs)
		}
	}
	return active
}

// Observer is a reveal.Observer whose notifications are triggered by tests.
type Observer struct {
	Options reveal.ObserverOptions

	callback     func([]reveal.Entry)
	mu           sync.Mutex
	observed     []reveal.Element
	disconnected bool
}

// Observe implements reveal.Observer.
func (o *Observer) Observe(el reveal.Element) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disconnected || o.indexOf(el) >= 0 {
		return
	}
	o.observed = append(o.observed, el)
}

// Unobserve implements reveal.Observer.
func (o *Observer) Unobserve(el reveal.Element) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i := o.indexOf(el); i >= 0 {
		o.observed = append(o.observed[:i], o.observed[i+1:]...)
	}
}

// Disconnect implements reveal.Observer.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observed = nil
	o.disconnected = true
}

// Disconnected reports whether Disconnect was called.
func (o *Observer) Disconnected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disconnected
}

// Observed returns the elements currently observed.
func (o *Observer) Observed() []reveal.Element {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]reveal.Element, len(o.observed))
	copy(out, o.observed)
	return out
}

// IsObserving reports whether el is observed.
func (o *Observer) IsObserving(el reveal.Element) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.indexOf(el) >= 0
}

// Enter delivers one batch reporting every given element as intersecting.
// Elements no longer observed are skipped, as a real observer would.
func (o *Observer) Enter(els ...reveal.Element) {
	o.deliver(els, true)
}

// Leave delivers one batch reporting the elements as not intersecting.
func (o *Observer) Leave(els ...reveal.Element) {
	o.deliver(els, false)
}

func (o *Observer) deliver(els []reveal.Element, intersecting bool) {
	o.mu.Lock()
	var entries []reveal.Entry
	for _, el := range els {
		if o.indexOf(el) >= 0 {
			entries = append(entries, reveal.Entry{Target: el, IsIntersecting: intersecting})
		}
	}
	o.mu.Unlock()

	if len(entries) > 0 {
		o.callback(entries)
	}
}

func (o *Observer) indexOf(el reveal.Element) int {
	for i, e := range o.observed {
		if e == el {
			return i
		}
	}
	return -1
}
