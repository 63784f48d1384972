package text

import (
	"nostrly.lol/hex"
)

// AppendBytesClosure appends some form of src to dst.
type AppendBytesClosure func(dst, src []byte) []byte

// Noop appends src verbatim.
func Noop(dst, src []byte) []byte { return append(dst, src...) }

// AppendQuote wraps the output of ac in double quotes.
func AppendQuote(dst, src []byte, ac AppendBytesClosure) []byte {
	dst = append(dst, '"')
	dst = ac(dst, src)
	dst = append(dst, '"')
	return dst
}

// Quote appends src in double quotes without escaping.
func Quote(dst, src []byte) []byte { return AppendQuote(dst, src, Noop) }

// JSONKey appends a quoted object key and the colon.
func JSONKey(dst, k []byte) (b []byte) {
	dst = append(dst, '"')
	dst = append(dst, k...)
	return append(dst, '"', ':')
}

// MarshalBool appends true or false.
func MarshalBool(dst []byte, truth bool) []byte {
	if truth {
		return append(dst, "true"...)
	}
	return append(dst, "false"...)
}

// MarshalHexArray appends a JSON array of lower case hex strings.
func MarshalHexArray(dst []byte, ha [][]byte) (b []byte) {
	dst = append(dst, '[')
	for i := range ha {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendQuote(dst, ha[i], hex.EncAppend)
	}
	return append(dst, ']')
}

// MarshalStringArray appends a JSON array of NIP-01 escaped strings.
func MarshalStringArray(dst []byte, sa [][]byte) (b []byte) {
	dst = append(dst, '[')
	for i := range sa {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendQuote(dst, sa[i], NostrEscape)
	}
	return append(dst, ']')
}
