package reveal

import (
	"context"
	"strconv"
	"sync"

	"github.com/lumen-press/lumen/internal/logging"
)

// groupKey identifies an observer group.
type groupKey struct {
	threshold  float64
	rootMargin string
}

func (k groupKey) String() string {
	return strconv.FormatFloat(k.threshold, 'g', -1, 64) + "__" + k.rootMargin
}

// Scheduler owns the observers for one document. Separate schedulers share
// nothing, so tests and multiple documents do not interfere.
//
// Invariants:
//   - observers holds at most one observer per groupKey
//   - observers is only replaced wholesale, under mu
//   - element mutations happen under domMu, one callback at a time
type Scheduler struct {
	doc    Document
	env    Environment
	timers Timers
	logger logging.Logger

	mu        sync.Mutex
	observers map[groupKey]Observer

	domMu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimers replaces the default time.AfterFunc based timers.
func WithTimers(t Timers) Option {
	return func(s *Scheduler) {
		s.timers = t
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l.WithComponent("reveal")
	}
}

// New creates a scheduler for doc.
func New(doc Document, env Environment, opts ...Option) *Scheduler {
	s := &Scheduler{
		doc:       doc,
		env:       env,
		timers:    RealTimers{},
		logger:    logging.NewNopLogger(),
		observers: make(map[groupKey]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize discovers marked elements and starts observing them. A nil cfg
// means DefaultConfig. Calling it again replaces every observer created by
// the previous call.
//
// When reduced motion is preferred or the intersection primitive is missing,
// every marked element is revealed before Initialize returns and no observer
// is created.
func (s *Scheduler) Initialize(cfg *Config) {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	ctx := context.Background()

	if root := s.doc.Root(); root != nil {
		s.domMu.Lock()
		root.AddClass(ClassJS)
		s.domMu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.disconnectLocked()

	elements := s.doc.QueryByClass(ClassOnScroll, ClassOnLoad)

	if s.env.PrefersReducedMotion() || !s.env.SupportsIntersection() {
		s.domMu.Lock()
		for _, el := range elements {
			Reveal(el)
		}
		s.domMu.Unlock()

		s.logger.Debug(ctx, "revealed elements without observing",
			"elements", len(elements),
			"reduced_motion", s.env.PrefersReducedMotion())
		return
	}

	groups := make(map[groupKey][]Element)
	var order []groupKey
	for _, el := range elements {
		key := groupKey{
			threshold:  threshold(el, c.Threshold),
			rootMargin: rootMargin(el, c.RootMargin),
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], el)
	}

	for _, key := range order {
		obs := s.newObserver(key, c.PlayOnce)
		s.observers[key] = obs
		for _, el := range groups[key] {
			obs.Observe(el)
		}
		s.logger.Debug(ctx, "observing group", "group", key.String(), "elements", len(groups[key]))
	}
}

func (s *Scheduler) newObserver(key groupKey, playOnce bool) Observer {
	var obs Observer
	obs = s.env.NewObserver(
		ObserverOptions{Threshold: key.threshold, RootMargin: key.rootMargin},
		func(entries []Entry) {
			s.domMu.Lock()
			defer s.domMu.Unlock()
			s.handle(obs, playOnce, entries)
		},
	)
	return obs
}

// handle processes one batch of entries in delivery order. Caller holds
// domMu.
func (s *Scheduler) handle(obs Observer, playOnce bool, entries []Entry) {
	mobile := s.env.IsMobile()

	for _, entry := range entries {
		if !entry.IsIntersecting || entry.Target == nil {
			continue
		}
		el := entry.Target
		baseDelay := EffectiveDelay(el, mobile)
		stagger := EffectiveStagger(el, mobile)

		if stagger <= 0 {
			s.timers.AfterFunc(millis(baseDelay), func() {
				s.domMu.Lock()
				defer s.domMu.Unlock()
				Reveal(el)
				if playOnce {
					obs.Unobserve(el)
				}
			})
			continue
		}

		children := el.Children()
		Reveal(el)
		if len(children) == 0 {
			if playOnce {
				obs.Unobserve(el)
			}
			continue
		}

		for i, child := range children {
			last := i == len(children)-1
			s.timers.AfterFunc(millis(baseDelay+i*stagger), func() {
				s.domMu.Lock()
				defer s.domMu.Unlock()
				revealChild(child)
				if playOnce && last {
					obs.Unobserve(el)
				}
			})
		}
	}
}

// Destroy disconnects and discards every observer. Safe to call at any time.
// Reveals already scheduled still run.
func (s *Scheduler) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked()
}

func (s *Scheduler) disconnectLocked() {
	for key, obs := range s.observers {
		obs.Disconnect()
		delete(s.observers, key)
	}
}

// Groups returns the number of active observers.
func (s *Scheduler) Groups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// Reveal marks el as triggered and drops its hidden-state classes.
func Reveal(el Element) {
	el.AddClass(ClassTriggered)
	el.RemoveClass(hiddenClasses...)
}

// revealChild also forces the visible end state inline so conflicting CSS
// rules cannot keep a staggered child hidden.
func revealChild(el Element) {
	el.AddClass(ClassTriggered)
	el.RemoveClass(hiddenChildClasses...)
	el.SetStyle("opacity", "1")
	el.SetStyle("transform", "translateY(0)")
}

// RevealStaggered reveals the children of every marked element that declares
// a stagger interval and returns how many children it touched. The
// immediate-reveal path of Initialize only reveals the marked elements
// themselves, so build-time output calls this afterwards.
func RevealStaggered(doc Document) int {
	n := 0
	for _, el := range doc.QueryByClass(ClassOnScroll, ClassOnLoad) {
		if EffectiveStagger(el, false) <= 0 {
			continue
		}
		for _, child := range el.Children() {
			revealChild(child)
			n++
		}
	}
	return n
}
