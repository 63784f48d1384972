// Package filters is a set of tools for working with multiple nostr filters.
package filters

import (
	"encoding/json"

	"nostrly.lol/chk"
	"nostrly.lol/event"
	"nostrly.lol/filter"
)

// T is a wrapper around an array of pointers to filter.T.
type T struct {
	F []*filter.T
}

// Make a new filters.T.
func Make(l int) *T { return &T{F: make([]*filter.T, l)} }

// Len returns the number of elements in a filters.T.
func (f *T) Len() int {
	if f == nil {
		return 0
	}
	return len(f.F)
}

// New creates a new filters.T out of a variadic list of filter.T.
func New(ff ...*filter.T) (f *T) { return &T{F: ff} }

// Match checks if a set of filters.T matches on an event.T.
func (f *T) Match(event *event.T) bool {
	if f == nil {
		return false
	}
	for _, f := range f.F {
		if f.Matches(event) {
			return true
		}
	}
	return false
}

// String returns the JSON form of the filters.
func (f *T) String() (s string) { return string(f.Marshal(nil)) }

// Marshal appends the filters as a JSON array.
func (f *T) Marshal(dst []byte) (b []byte) {
	b = append(dst, '[')
	for i := range f.F {
		if i > 0 {
			b = append(b, ',')
		}
		b = f.F[i].Marshal(b)
	}
	return append(b, ']')
}

// MarshalElements appends the filters separated by commas without the
// enclosing brackets, the form they take inside a REQ envelope.
func (f *T) MarshalElements(dst []byte) (b []byte) {
	b = dst
	for i := range f.F {
		if i > 0 {
			b = append(b, ',')
		}
		b = f.F[i].Marshal(b)
	}
	return
}

// Unmarshal decodes a JSON array of filters.
func (f *T) Unmarshal(b []byte) (err error) {
	var raw []json.RawMessage
	if err = json.Unmarshal(b, &raw); chk.D(err) {
		return
	}
	return f.FromElements(raw)
}

// FromElements decodes each raw element as a filter.
func (f *T) FromElements(raw []json.RawMessage) (err error) {
	f.F = make([]*filter.T, 0, len(raw))
	for _, r := range raw {
		ff := filter.New()
		if err = ff.Unmarshal(r); err != nil {
			return
		}
		f.F = append(f.F, ff)
	}
	return
}
