// Package eoseenvelope is the EOSE message, sent by a relay once the stored
// events for a subscription have all been sent and only new ones will follow.
package eoseenvelope

import (
	"io"

	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/subscription"
)

const L = "EOSE"

type T struct {
	Subscription *subscription.Id
}

var _ codec.Envelope = (*T)(nil)

func New() *T                         { return &T{} }
func NewFrom(id *subscription.Id) *T  { return &T{Subscription: id} }
func (en *T) Label() string           { return L }
func (en *T) Write(w io.Writer) error { return envelopes.Write(w, en.Marshal) }

func (en *T) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, en.Subscription.Marshal)
}

func (en *T) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 1)
	if err != nil {
		return
	}
	en.Subscription = &subscription.Id{}
	return en.Subscription.Unmarshal(el[0])
}

func Parse(b []byte) (t *T, err error) {
	t = New()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}
