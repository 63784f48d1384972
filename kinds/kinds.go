// Package kinds is a set of helpers for dealing with lists of kind numbers
// including comparisons and encoding.
package kinds

import (
	"encoding/json"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/kind"
)

// T is an array of kind.T, used in filter.T for searches.
type T struct {
	K []*kind.T
}

// New creates a new kinds.T, if no parameter is given it just creates an
// empty zero kinds.T.
func New(k ...*kind.T) *T { return &T{k} }

// NewWithCap creates a new empty kinds.T with a given slice capacity.
func NewWithCap(c int) *T { return &T{make([]*kind.T, 0, c)} }

// FromIntSlice converts a []int into a kinds.T.
func FromIntSlice(is []int) (k *T) {
	k = &T{}
	for i := range is {
		k.K = append(k.K, kind.New(uint16(is[i])))
	}
	return
}

// Len returns the number of elements in a kinds.T.
func (k *T) Len() (l int) {
	if k == nil {
		return
	}
	return len(k.K)
}

func (k *T) Less(i, j int) bool { return k.K[i].K < k.K[j].K }
func (k *T) Swap(i, j int)      { k.K[i], k.K[j] = k.K[j], k.K[i] }

// ToUint16 returns the kinds as plain numbers.
func (k *T) ToUint16() (o []uint16) {
	for _, kk := range k.list() {
		o = append(o, kk.ToU16())
	}
	return
}

func (k *T) list() []*kind.T {
	if k == nil {
		return nil
	}
	return k.K
}

// Clone makes a new kinds.T with the same members.
func (k *T) Clone() (c *T) {
	if k == nil {
		return nil
	}
	c = NewWithCap(len(k.K))
	for _, kk := range k.K {
		c.K = append(c.K, kind.New(kk.K))
	}
	return
}

// Contains returns true if the provided element is found in the kinds.T.
func (k *T) Contains(s *kind.T) bool {
	for _, kk := range k.list() {
		if kk.Equal(s) {
			return true
		}
	}
	return false
}

// Equals checks that the provided kinds.T matches, in order.
func (k *T) Equals(t1 *T) bool {
	if k.Len() != t1.Len() {
		return false
	}
	for i := range k.list() {
		if !k.K[i].Equal(t1.K[i]) {
			return false
		}
	}
	return true
}

// Marshal appends the JSON array of kind numbers.
func (k *T) Marshal(dst []byte) (b []byte) {
	b = append(dst, '[')
	for i, kk := range k.list() {
		if i > 0 {
			b = append(b, ',')
		}
		b = kk.Marshal(b)
	}
	return append(b, ']')
}

// Unmarshal decodes a JSON array of kind numbers, all of which must fit in
// 16 bits.
func (k *T) Unmarshal(b []byte) (err error) {
	var is []int
	if err = json.Unmarshal(b, &is); chk.D(err) {
		return
	}
	for _, i := range is {
		if i < 0 || i > 0xffff {
			return errorf.D("kind %d out of range", i)
		}
	}
	*k = *FromIntSlice(is)
	return
}
