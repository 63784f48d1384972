// Package hex is a thin layer over encoding/hex that uses the SIMD codec
// from github.com/templexxx/xhex for the append forms on hot paths.
package hex

import (
	"encoding/hex"

	"github.com/templexxx/xhex"

	"nostrly.lol/errorf"
)

var (
	Enc      = hex.EncodeToString
	EncBytes = hex.Encode
	Dec      = hex.DecodeString
	DecBytes = hex.Decode
	DecLen   = hex.DecodedLen
)

type InvalidByteError = hex.InvalidByteError

// EncAppend appends the lower case hex of src to dst.
func EncAppend(dst, src []byte) (b []byte) {
	l := len(dst)
	dst = append(dst, make([]byte, len(src)*2)...)
	xhex.Encode(dst[l:], src)
	return dst
}

// DecAppend appends the bytes decoded from hex src to dst.
func DecAppend(dst, src []byte) (b []byte, err error) {
	if len(src)%2 != 0 {
		err = errorf.D("odd length hex string: %d", len(src))
		return
	}
	l := len(dst)
	b = append(dst, make([]byte, len(src)/2)...)
	if err = xhex.Decode(b[l:], src); err != nil {
		b = dst
		return
	}
	return
}

// DecSized decodes a hex string that must decode to exactly size bytes.
func DecSized(s string, size int) (b []byte, err error) {
	if len(s) != size*2 {
		err = errorf.D("hex string must be %d characters, got %d", size*2, len(s))
		return
	}
	if b, err = hex.DecodeString(s); err != nil {
		return
	}
	return
}
