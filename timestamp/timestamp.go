// Package timestamp is a wrapper around UNIX seconds as used in the
// created_at field of events and in filters.
package timestamp

import (
	"strconv"
	"time"
)

// T is a UNIX 64 bit timestamp of 1 second precision.
type T int64

// New returns a zero timestamp.
func New() (t *T) {
	tt := T(0)
	return &tt
}

// Now returns the current UNIX timestamp of the current second.
func Now() *T {
	tt := T(time.Now().Unix())
	return &tt
}

// FromUnix converts from a standard int64 unix timestamp.
func FromUnix(t int64) *T {
	tt := T(t)
	return &tt
}

// FromTime converts a time.Time, discarding sub-second precision.
func FromTime(t time.Time) *T { return FromUnix(t.Unix()) }

// I64 returns the timestamp as int64.
func (t *T) I64() int64 {
	if t == nil {
		return 0
	}
	return int64(*t)
}

// U64 returns the timestamp as uint64.
func (t *T) U64() uint64 { return uint64(t.I64()) }

// Int returns the timestamp as int.
func (t *T) Int() int { return int(t.I64()) }

// Time converts to a time.Time.
func (t *T) Time() time.Time { return time.Unix(t.I64(), 0) }

// Clone returns a copy that does not alias t.
func (t *T) Clone() *T { return FromUnix(t.I64()) }

// String returns the decimal form.
func (t *T) String() string { return strconv.FormatInt(t.I64(), 10) }

// Marshal appends the decimal form of the timestamp, as it appears in JSON.
func (t *T) Marshal(dst []byte) (b []byte) { return strconv.AppendInt(dst, t.I64(), 10) }

// Parse reads a timestamp from its decimal string form, as found in tag
// values such as expiration.
func Parse(s string) (t *T, err error) {
	var i int64
	if i, err = strconv.ParseInt(s, 10, 64); err != nil {
		return
	}
	t = FromUnix(i)
	return
}
