package reveal

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// EffectiveDelay returns the element's base delay in milliseconds, halved on
// mobile when nonzero.
func EffectiveDelay(el Element, mobile bool) int {
	return scaled(intAttr(el, AttrDelay), mobile)
}

// EffectiveStagger returns the element's per-child stagger interval in
// milliseconds, halved on mobile when nonzero.
func EffectiveStagger(el Element, mobile bool) int {
	return scaled(intAttr(el, AttrStagger), mobile)
}

func scaled(ms int, mobile bool) int {
	if !mobile || ms == 0 {
		return ms
	}
	return int(math.Floor(float64(ms)*MobileScale + 0.5))
}

// intAttr parses a leading integer like "150" or "150ms". Absent or
// unparseable values are 0.
func intAttr(el Element, name string) int {
	raw, ok := el.Attr(name)
	if !ok {
		return 0
	}
	s := strings.TrimSpace(raw)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// threshold returns the element's threshold override, read from a leading
// number like "0.3" or "0.3px". It is def when the attribute is absent, has
// no leading number or falls outside [0, 1].
func threshold(el Element, def float64) float64 {
	raw, ok := el.Attr(AttrThreshold)
	if !ok {
		return def
	}
	prefix := floatPrefix(strings.TrimSpace(raw))
	if prefix == "" {
		return def
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 1 {
		return def
	}
	return v
}

// floatPrefix returns the longest leading decimal number of s: an optional
// sign, digits with an optional fraction, and an exponent only when digits
// follow it. It returns "" when s does not start with a number.
func floatPrefix(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	mantissa := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		mantissa++
	}
	if end < len(s) && s[end] == '.' {
		frac := end + 1
		for frac < len(s) && isDigit(s[frac]) {
			frac++
			mantissa++
		}
		if mantissa > 0 {
			end = frac
		}
	}
	if mantissa == 0 {
		return ""
	}

	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '-' || s[exp] == '+') {
			exp++
		}
		digits := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > digits {
			end = exp
		}
	}
	return s[:end]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// rootMargin returns the element's root margin override. A present but empty
// attribute still overrides the default.
func rootMargin(el Element, def string) string {
	if raw, ok := el.Attr(AttrRootMargin); ok {
		return raw
	}
	return def
}

func millis(ms int) time.Duration {
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}
