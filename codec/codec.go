// Package codec defines what the relay client needs from a wire message.
package codec

import (
	"io"
)

// Envelope is one nostr protocol message: a JSON array led by its label, such
// as ["EVENT",...] or ["OK",...].
type Envelope interface {
	// Label is the leading string, EVENT, REQ, OK and so on.
	Label() string
	// Write sends the marshaled envelope to w.
	Write(w io.Writer) (err error)
	JSON
}

// JSON is implemented by every envelope and by the elements that appear in
// one. Marshal appends to dst and cannot fail; Unmarshal takes the whole
// encoded value.
type JSON interface {
	Marshal(dst []byte) (b []byte)
	Unmarshal(b []byte) (err error)
}
