package reveal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type attrElement struct {
	attrs map[string]string
}

func (e attrElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}
func (attrElement) AddClass(...string)      {}
func (attrElement) RemoveClass(...string)   {}
func (attrElement) HasClass(string) bool    { return false }
func (attrElement) SetStyle(string, string) {}
func (attrElement) Children() []Element     { return nil }

func withAttrs(kv ...string) Element {
	attrs := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs[kv[i]] = kv[i+1]
	}
	return attrElement{attrs: attrs}
}

func TestEffectiveDelay(t *testing.T) {
	tests := []struct {
		name     string
		value    *string
		mobile   bool
		expected int
	}{
		{"absent", nil, false, 0},
		{"absent mobile", nil, true, 0},
		{"desktop", ptr("300"), false, 300},
		{"mobile halves", ptr("300"), true, 150},
		{"mobile rounds half up", ptr("301"), true, 151},
		{"zero stays zero", ptr("0"), true, 0},
		{"unit suffix", ptr("120ms"), false, 120},
		{"garbage", ptr("soon"), false, 0},
		{"empty", ptr(""), true, 0},
		{"whitespace", ptr(" 80 "), false, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := withAttrs()
			if tt.value != nil {
				el = withAttrs(AttrDelay, *tt.value, AttrStagger, *tt.value)
			}
			assert.Equal(t, tt.expected, EffectiveDelay(el, tt.mobile))
			assert.Equal(t, tt.expected, EffectiveStagger(el, tt.mobile))
		})
	}
}

func TestThresholdOverride(t *testing.T) {
	assert.Equal(t, 0.5, threshold(withAttrs(), 0.5))
	assert.Equal(t, 0.2, threshold(withAttrs(AttrThreshold, "0.2"), 0.5))
	assert.Equal(t, 0.0, threshold(withAttrs(AttrThreshold, "0"), 0.5))
	assert.Equal(t, 0.5, threshold(withAttrs(AttrThreshold, ""), 0.5))
	assert.Equal(t, 0.5, threshold(withAttrs(AttrThreshold, "NaN"), 0.5))
	assert.Equal(t, 0.5, threshold(withAttrs(AttrThreshold, "2"), 0.5))
	assert.Equal(t, 0.5, threshold(withAttrs(AttrThreshold, "half"), 0.5))
	assert.Equal(t, 0.5, threshold(withAttrs(AttrThreshold, "-0.3"), 0.5))
}

func TestThresholdLeadingNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"0.3px", 0.3},
		{"0.3 ", 0.3},
		{" .75%", 0.75},
		{"1.", 1},
		{"1e-1x", 0.1},
		{"5e-1e", 0.5},
		{"0.4e", 0.4},
		{"0.4e+", 0.4},
		{"+0.6", 0.6},
		{".", 0.5},
		{"-", 0.5},
		{"px0.3", 0.5},
		{"2px", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, threshold(withAttrs(AttrThreshold, tt.raw), 0.5))
		})
	}
}

func TestRootMarginOverride(t *testing.T) {
	assert.Equal(t, "0px", rootMargin(withAttrs(), "0px"))
	assert.Equal(t, "", rootMargin(withAttrs(AttrRootMargin, ""), "0px"))
	assert.Equal(t, "10px", rootMargin(withAttrs(AttrRootMargin, "10px"), "0px"))
}

func TestGroupKeyString(t *testing.T) {
	assert.Equal(t, "0.5__0px", groupKey{threshold: 0.5, rootMargin: "0px"}.String())
}

func ptr(s string) *string { return &s }
