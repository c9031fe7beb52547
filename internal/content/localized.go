package content

import "encoding/json"

// Localized is a schema field whose shape is only known at runtime: a plain
// string, a locale map, a rich-text array or a map of rich-text arrays.
// Authoring tools may store any of these for the same field.
type Localized struct {
	Raw any
}

// L wraps a raw value. Handy in tests and fixtures.
func L(raw any) Localized {
	return Localized{Raw: raw}
}

// UnmarshalJSON keeps the raw value with object key order intact.
func (l *Localized) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	l.Raw = v
	return nil
}

// MarshalJSON writes the raw value back out.
func (l Localized) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Raw)
}

// IsZero reports whether the field was absent or null.
func (l Localized) IsZero() bool {
	return l.Raw == nil
}
