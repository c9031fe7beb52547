package reveal

// Marker classes and attributes understood by the scheduler.
const (
	ClassOnScroll  = "animate-on-scroll"
	ClassOnLoad    = "animate-on-load"
	ClassTriggered = "animate-triggered"
	ClassJS        = "js"

	AttrThreshold  = "data-animation-threshold"
	AttrRootMargin = "data-animation-root-margin"
	AttrDelay      = "data-animation-delay"
	AttrStagger    = "data-animation-stagger"

	// MobileBreakpoint is the media query treated as a mobile viewport.
	MobileBreakpoint = "(max-width: 768px)"
	// MobileScale shortens authored delays on mobile viewports.
	MobileScale = 0.5
)

// hiddenClasses are removed from an element when it is revealed.
var hiddenClasses = []string{"opacity-0", "translate-y-4", "translate-y-2", "animate-type-scale"}

// hiddenChildClasses are removed from staggered children.
var hiddenChildClasses = []string{"opacity-0", "translate-y-4", "translate-y-2", "scale-95", "animate-type-scale"}

// Config holds the scheduler defaults. Per-element attributes override
// Threshold and RootMargin.
type Config struct {
	Threshold  float64 `yaml:"threshold" json:"threshold"`
	RootMargin string  `yaml:"root_margin" json:"root_margin"`
	PlayOnce   bool    `yaml:"play_once" json:"play_once"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:  0.5,
		RootMargin: "0px",
		PlayOnce:   true,
	}
}
