// Package tags is the ordered list of tag.T carried by an event, with the
// lookups the protocol needs: first/last/all by prefix, the NIP-40
// expiration and the NIP-70 protected marker.
package tags

import (
	"bytes"

	"nostrly.lol/tag"
	"nostrly.lol/text"
	"nostrly.lol/timestamp"
)

// T is a list of tag.T - which are lists of string elements with ordering and
// no uniqueness constraint (not a set).
type T struct {
	t []*tag.T
}

// New creates a tags.T from the given tags, skipping nils.
func New(fields ...*tag.T) (t *T) {
	t = &T{t: make([]*tag.T, 0, len(fields))}
	for _, field := range fields {
		if field != nil {
			t.t = append(t.t, field)
		}
	}
	return
}

// NewWithCap creates an empty tags.T with room for c tags.
func NewWithCap(c int) (t *T) { return &T{t: make([]*tag.T, 0, c)} }

// FromStringSlices builds a tags.T from the [][]string JSON form.
func FromStringSlices(ss ...[]string) (t *T) {
	t = NewWithCap(len(ss))
	for _, s := range ss {
		t.t = append(t.t, tag.New(s...))
	}
	return
}

// F returns the underlying slice.
func (t *T) F() (tt []*tag.T) {
	if t == nil {
		return nil
	}
	return t.t
}

// N returns the tag at index i, or nil.
func (t *T) N(i int) (tt *tag.T) {
	if t == nil || i < 0 || i >= len(t.t) {
		return nil
	}
	return t.t[i]
}

// Len returns the number of tags.
func (t *T) Len() (l int) {
	if t == nil {
		return 0
	}
	return len(t.t)
}

// AppendTags appends tags, creating the list if t is nil.
func (t *T) AppendTags(ttt ...*tag.T) (tt *T) {
	if t == nil {
		t = NewWithCap(len(ttt))
	}
	for _, v := range ttt {
		if v != nil {
			t.t = append(t.t, v)
		}
	}
	return t
}

// Append appends the tags of other lists.
func (t *T) Append(ttt ...*T) (tt *T) {
	if t == nil {
		t = NewWithCap(len(ttt))
	}
	for _, tf := range ttt {
		t.t = append(t.t, tf.F()...)
	}
	return t
}

// Clone makes a deep copy.
func (t *T) Clone() (c *T) {
	if t == nil {
		return nil
	}
	c = NewWithCap(len(t.t))
	for _, v := range t.t {
		c.t = append(c.t, v.Clone())
	}
	return
}

// Equal is true when both lists hold equal tags in the same order.
func (t *T) Equal(ta *T) bool {
	if t.Len() != ta.Len() {
		return false
	}
	for i := range t.F() {
		if !t.t[i].Equal(ta.t[i]) {
			return false
		}
	}
	return true
}

// ToStringSlice converts to the [][]string form.
func (t *T) ToStringSlice() (b [][]string) {
	b = make([][]string, 0, t.Len())
	for _, v := range t.F() {
		b = append(b, v.ToStringSlice())
	}
	return
}

// GetFirst gets the first tag in tags that matches the prefix, see
// [tag.T.StartsWith].
func (t *T) GetFirst(tagPrefix *tag.T) *tag.T {
	for _, v := range t.F() {
		if v.StartsWith(tagPrefix) {
			return v
		}
	}
	return nil
}

// GetLast gets the last tag in tags that matches the prefix.
func (t *T) GetLast(tagPrefix *tag.T) *tag.T {
	for i := t.Len() - 1; i >= 0; i-- {
		if t.t[i].StartsWith(tagPrefix) {
			return t.t[i]
		}
	}
	return nil
}

// GetAll gets all the tags that match the prefix.
func (t *T) GetAll(tagPrefix *tag.T) *T {
	result := NewWithCap(t.Len())
	for _, v := range t.F() {
		if v.StartsWith(tagPrefix) {
			result.t = append(result.t, v)
		}
	}
	return result
}

// GetFirstKey returns the first tag with exactly the key k.
func (t *T) GetFirstKey(k []byte) *tag.T {
	for _, v := range t.F() {
		if v.IsKey(k) {
			return v
		}
	}
	return nil
}

// ContainsAny returns true if any tag with key tagName has a value that is
// one of values.
func (t *T) ContainsAny(tagName []byte, values [][]byte) bool {
	for _, v := range t.F() {
		if v.Len() < 2 || !v.IsKey(tagName) {
			continue
		}
		for _, candidate := range values {
			if bytes.Equal(v.Value(), candidate) {
				return true
			}
		}
	}
	return false
}

// ContainsProtectedMarker returns true if the NIP-70 "-" tag is present,
// meaning a relay should accept the event only from its authenticated
// author.
func (t *T) ContainsProtectedMarker() (does bool) { return t.GetFirstKey(tag.Protected) != nil }

// Expiration returns the NIP-40 expiration timestamp if a well formed
// expiration tag is present. When there are several, the first one counts.
func (t *T) Expiration() (exp *timestamp.T, ok bool) {
	tg := t.GetFirstKey(tag.Expiration)
	if tg == nil || tg.Len() < 2 {
		return
	}
	var err error
	if exp, err = timestamp.Parse(string(tg.Value())); err != nil {
		return nil, false
	}
	return exp, true
}

// Marshal appends the JSON encoding of the tags as [][]string to dst, with
// NIP-01 string escaping.
func (t *T) Marshal(dst []byte) []byte {
	dst = append(dst, '[')
	for i, tt := range t.F() {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = tt.Marshal(dst)
	}
	return append(dst, ']')
}

// MarshalValues appends the values of a filter style tag list, used where
// the key has already been written.
func MarshalValues(dst []byte, values [][]byte) []byte { return text.MarshalStringArray(dst, values) }
