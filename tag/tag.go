// Package tag provides an implementation of a nostr tag list, an array of
// strings with a usually single letter first "key" field, including methods to
// compare, marshal and access elements with their proper semantics.
package tag

import (
	"bytes"

	"golang.org/x/exp/constraints"

	"nostrly.lol/text"
)

// The tag position meanings, so they are clear when reading.
const (
	Key = iota
	Value
	Relay
)

// Well known tag keys that carry protocol meaning.
var (
	// Expiration is the NIP-40 key whose value is the unix time after which
	// the event should be considered gone.
	Expiration = []byte("expiration")
	// Protected is the NIP-70 marker that asks relays to only accept the
	// event from its author.
	Protected = []byte("-")
	// Nonce is the NIP-13 proof of work tag: ["nonce", "<n>", "<target>"].
	Nonce = []byte("nonce")
	// Alt is the NIP-31 short human readable summary.
	Alt = []byte("alt")
)

// T marker strings for e (reference) tags.
const (
	MarkerReply   = "reply"
	MarkerRoot    = "root"
	MarkerMention = "mention"
)

// T is a list of strings with a literal ordering.
//
// Not a set, there can be repeating elements.
type T struct {
	field [][]byte
}

// New creates a new tag.T from a variadic parameter that can be either string
// or byte slice.
func New[V string | []byte](fields ...V) (t *T) {
	t = &T{field: make([][]byte, len(fields))}
	for i, field := range fields {
		t.field[i] = []byte(field)
	}
	return
}

// NewWithCap creates an empty tag.T with room for c fields.
func NewWithCap[V constraints.Integer](c V) *T { return &T{make([][]byte, 0, c)} }

// FromBytesSlice creates a tag.T from a slice of slice of bytes.
func FromBytesSlice(fields ...[]byte) (t *T) { return &T{field: fields} }

// S returns a field as a string, empty if out of range.
func (t *T) S(i int) (s string) { return string(t.B(i)) }

// B returns a field as a byte slice, nil if out of range.
func (t *T) B(i int) (b []byte) {
	if t == nil || i < 0 || i >= len(t.field) {
		return
	}
	return t.field[i]
}

// Set replaces the field at index i, if it exists.
func (t *T) Set(i int, b []byte) {
	if t == nil || i < 0 || i >= len(t.field) {
		return
	}
	t.field[i] = b
}

// Len returns the number of elements in a tag.T.
func (t *T) Len() int {
	if t == nil {
		return 0
	}
	return len(t.field)
}

// Clone makes a deep copy, so the copy shares no memory with t.
func (t *T) Clone() (c *T) {
	if t == nil {
		return nil
	}
	c = &T{field: make([][]byte, 0, len(t.field))}
	for _, f := range t.field {
		c.field = append(c.field, append([]byte(nil), f...))
	}
	return
}

// Append fields to the tag, creating it if t is nil.
func (t *T) Append(b ...[]byte) (tt *T) {
	tt = t
	if t == nil {
		tt = &T{}
	}
	tt.field = append(tt.field, b...)
	return
}

// ToSliceOfBytes renders a tag.T as a slice of slice of bytes.
func (t *T) ToSliceOfBytes() (b [][]byte) {
	if t == nil {
		return [][]byte{}
	}
	return t.field
}

// ToStringSlice converts a tag.T to a slice of strings.
func (t *T) ToStringSlice() (b []string) {
	b = make([]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		b = append(b, string(t.field[i]))
	}
	return
}

// StartsWith checks a tag has the same initial set of elements.
//
// The last element is treated specially in that it is considered to match if
// the candidate has the same initial substring as its corresponding element.
func (t *T) StartsWith(prefix *T) bool {
	prefixLen := prefix.Len()
	if prefixLen == 0 || prefixLen > t.Len() {
		return false
	}
	for i := 0; i < prefixLen-1; i++ {
		if !bytes.Equal(prefix.field[i], t.field[i]) {
			return false
		}
	}
	return bytes.HasPrefix(t.field[prefixLen-1], prefix.field[prefixLen-1])
}

// Key returns the first element of the tag.
func (t *T) Key() []byte { return t.B(Key) }

// Value returns the second element of the tag.
func (t *T) Value() []byte { return t.B(Value) }

// Relay returns the third element of the tag, which for e and p tags is a
// relay hint.
func (t *T) Relay() []byte { return t.B(Relay) }

// IsKey reports whether the tag's key is k.
func (t *T) IsKey(k []byte) bool { return t.Len() > 0 && bytes.Equal(t.field[Key], k) }

// Marshal encodes a tag.T as standard minified JSON array of strings.
func (t *T) Marshal(dst []byte) (b []byte) {
	if t == nil {
		return append(dst, '[', ']')
	}
	return text.MarshalStringArray(dst, t.field)
}

// Contains returns true if the provided element is found in the tag.
func (t *T) Contains(s []byte) (b bool) {
	for i := 0; i < t.Len(); i++ {
		if bytes.Equal(t.field[i], s) {
			return true
		}
	}
	return false
}

// Equal checks that the provided tag has the same fields in the same order.
func (t *T) Equal(ta *T) bool {
	if t.Len() != ta.Len() {
		return false
	}
	for i := 0; i < t.Len(); i++ {
		if !bytes.Equal(t.field[i], ta.field[i]) {
			return false
		}
	}
	return true
}
