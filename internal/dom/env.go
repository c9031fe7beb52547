package dom

import "github.com/lumen-press/lumen/internal/reveal"

// StaticEnvironment describes a build-time environment with no viewport.
// It never offers an intersection observer, so the reveal scheduler takes
// its immediate-reveal path and the output works without JavaScript.
type StaticEnvironment struct {
	ReducedMotion bool
	Mobile        bool
}

var _ reveal.Environment = StaticEnvironment{}

// PrefersReducedMotion implements reveal.Environment.
func (e StaticEnvironment) PrefersReducedMotion() bool { return e.ReducedMotion }

// IsMobile implements reveal.Environment.
func (e StaticEnvironment) IsMobile() bool { return e.Mobile }

// SupportsIntersection implements reveal.Environment.
func (StaticEnvironment) SupportsIntersection() bool { return false }

// NewObserver implements reveal.Environment. The returned observer ignores
// every call.
func (StaticEnvironment) NewObserver(reveal.ObserverOptions, func([]reveal.Entry)) reveal.Observer {
	return nopObserver{}
}

type nopObserver struct{}

func (nopObserver) Observe(reveal.Element)   {}
func (nopObserver) Unobserve(reveal.Element) {}
func (nopObserver) Disconnect()              {}
