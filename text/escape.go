// Package text is a set of helpers for appending NIP-01 conformant JSON
// strings and arrays to byte slices without going through reflection.
package text

const hexDigits = "0123456789abcdef"

// NostrEscape appends src to dst escaped for JSON according to NIP-01:
//
//	No whitespace, line breaks or other unnecessary formatting should be
//	included in the output JSON. No characters except the following should
//	be escaped, and instead should be included verbatim:
//
//	- A line break, 0x0A, as \n
//	- A double quote, 0x22, as \"
//	- A backslash, 0x5C, as \\
//	- A carriage return, 0x0D, as \r
//	- A tab character, 0x09, as \t
//	- A backspace, 0x08, as \b
//	- A form feed, 0x0C, as \f
//
// The remaining control characters below 0x20 cannot appear raw in valid
// JSON, so they are written as \u00XX with lower case hex, which is what
// JSON.stringify and serde_json produce, keeping ids interoperable.
func NostrEscape(dst, src []byte) []byte {
	for _, c := range src {
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\r':
			dst = append(dst, '\\', 'r')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				continue
			}
			dst = append(dst, c)
		}
	}
	return dst
}
