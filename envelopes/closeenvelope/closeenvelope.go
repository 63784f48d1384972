// Package closeenvelope is the CLOSE message a client sends to end a
// subscription.
package closeenvelope

import (
	"io"

	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/subscription"
)

const L = "CLOSE"

type T struct {
	ID *subscription.Id
}

var _ codec.Envelope = (*T)(nil)

func New() *T                               { return &T{} }
func NewFrom(id *subscription.Id) *T        { return &T{ID: id} }
func (en *T) Label() string                 { return L }
func (en *T) Write(w io.Writer) (err error) { return envelopes.Write(w, en.Marshal) }

func (en *T) Marshal(dst []byte) (b []byte) { return envelopes.Marshal(dst, L, en.ID.Marshal) }

func (en *T) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 1)
	if err != nil {
		return
	}
	en.ID = &subscription.Id{}
	return en.ID.Unmarshal(el[0])
}

func Parse(b []byte) (t *T, err error) {
	t = New()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}
