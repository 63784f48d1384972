// Package noticeenvelope is the NOTICE message, a human readable message
// from a relay.
package noticeenvelope

import (
	"io"

	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/text"
)

const L = "NOTICE"

type T struct {
	Message []byte
}

var _ codec.Envelope = (*T)(nil)

func New() *T                             { return &T{} }
func NewFrom[V string | []byte](msg V) *T { return &T{Message: []byte(msg)} }
func (en *T) Label() string               { return L }
func (en *T) Write(w io.Writer) error     { return envelopes.Write(w, en.Marshal) }

func (en *T) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, func(o []byte) []byte {
		return text.AppendQuote(o, en.Message, text.NostrEscape)
	})
}

func (en *T) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 1)
	if err != nil {
		return
	}
	en.Message, err = envelopes.String(el[0])
	return
}

func Parse(b []byte) (t *T, err error) {
	t = New()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}
