// Package reveal schedules scroll-triggered reveal animations.
//
// Marked elements are grouped by their (threshold, root margin) pair and each
// group shares one intersection observer. When an element enters the
// viewport it is revealed after its declared delay, or its children are
// revealed one after another when a stagger interval is declared. With the
// default play-once policy an element is unobserved after its reveal and
// never evaluated again.
//
// The package does not talk to a browser directly. Callers supply a Document,
// an Environment (reduced-motion and viewport queries plus the intersection
// primitive) and Timers. internal/dom provides an HTML-tree implementation.
package reveal

import "time"

// Element is a page element that can be revealed.
type Element interface {
	Attr(name string) (string, bool)
	AddClass(names ...string)
	RemoveClass(names ...string)
	HasClass(name string) bool
	SetStyle(property, value string)
	// Children returns the element's immediate child elements in
	// document order.
	Children() []Element
}

// Document finds marked elements.
type Document interface {
	// Root returns the document element (<html>), or nil.
	Root() Element
	// QueryByClass returns every element carrying at least one of the
	// classes, in document order, each element once.
	QueryByClass(classes ...string) []Element
}

// ObserverOptions configures one intersection observer.
type ObserverOptions struct {
	Threshold  float64
	RootMargin string
}

// Entry is one visibility notification.
type Entry struct {
	Target         Element
	IsIntersecting bool
}

// Observer watches elements for viewport intersection. Entries are
// delivered in batches to the callback given at construction.
type Observer interface {
	Observe(el Element)
	Unobserve(el Element)
	Disconnect()
}

// Environment answers the runtime questions the scheduler needs.
type Environment interface {
	PrefersReducedMotion() bool
	// IsMobile reports a narrow viewport (max-width: 768px).
	IsMobile() bool
	// SupportsIntersection reports whether NewObserver is usable.
	SupportsIntersection() bool
	NewObserver(opts ObserverOptions, callback func(entries []Entry)) Observer
}

// Timers runs a callback after a delay. Implementations must not call f
// synchronously from AfterFunc.
type Timers interface {
	AfterFunc(d time.Duration, f func())
}

// RealTimers schedules with time.AfterFunc.
type RealTimers struct{}

// AfterFunc implements Timers.
func (RealTimers) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
