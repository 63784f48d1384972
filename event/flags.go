package event

import (
	"math/bits"

	"nostrly.lol/timestamp"
)

// IsExpired reports whether the event carries a NIP-40 expiration tag whose
// timestamp is at or before now. Events without one, or with a value that is
// not an integer, never expire.
func (ev *T) IsExpired(now *timestamp.T) bool {
	exp, ok := ev.Tags.Expiration()
	if !ok {
		return false
	}
	return exp.I64() <= now.I64()
}

// IsProtected reports whether the event has the NIP-70 "-" tag.
func (ev *T) IsProtected() bool { return ev.Tags.ContainsProtectedMarker() }

// Difficulty is the NIP-13 proof of work of the ID: its number of leading
// zero bits.
func (ev *T) Difficulty() int { return Difficulty(ev.ID) }

// Difficulty counts the leading zero bits of an id.
func Difficulty(id []byte) (n int) {
	for _, b := range id {
		if b == 0 {
			n += 8
			continue
		}
		n += bits.LeadingZeros8(b)
		break
	}
	return
}
