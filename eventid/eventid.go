// Package eventid is a wrapper for the 32 byte sha256 id of an event that
// knows how to render and parse itself as hex.
package eventid

import (
	"bytes"

	"nostrly.lol/errorf"
	"nostrly.lol/hex"
	"nostrly.lol/sha256"
)

// T is the SHA256 hash of the canonical form of an event.
type T struct {
	b []byte
}

func New() (ei *T) { return &T{} }

// NewWith wraps the bytes without checking them.
func NewWith[V string | []byte](s V) (ei *T) { return &T{b: []byte(s)} }

// Set checks the length of b and stores it.
func (ei *T) Set(b []byte) (err error) {
	if len(b) != sha256.Size {
		err = errorf.D("id bytes incorrect size, got %d require %d", len(b), sha256.Size)
		return
	}
	ei.b = b
	return
}

// NewFromBytes is New and Set.
func NewFromBytes(b []byte) (ei *T, err error) {
	ei = New()
	err = ei.Set(b)
	return
}

// NewFromString decodes a 64 character hex id.
func NewFromString(s string) (ei *T, err error) {
	var b []byte
	if b, err = hex.DecSized(s, sha256.Size); err != nil {
		return
	}
	ei = &T{b: b}
	return
}

func (ei *T) String() string {
	if ei == nil || ei.b == nil {
		return ""
	}
	return hex.Enc(ei.b)
}

// ByteString appends the hex form to src.
func (ei *T) ByteString(src []byte) (b []byte) { return hex.EncAppend(src, ei.b) }

func (ei *T) Bytes() (b []byte) {
	if ei == nil {
		return nil
	}
	return ei.b
}

func (ei *T) Len() int {
	if ei == nil {
		return 0
	}
	return len(ei.b)
}

func (ei *T) Equal(ei2 *T) bool { return bytes.Equal(ei.Bytes(), ei2.Bytes()) }
