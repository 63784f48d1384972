// Package closedenvelope is the CLOSED message a relay sends when it ends a
// subscription, with a reason.
package closedenvelope

import (
	"io"

	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/subscription"
	"nostrly.lol/text"
)

const L = "CLOSED"

type T struct {
	Subscription *subscription.Id
	Reason       []byte
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{} }
func NewFrom(id *subscription.Id, msg []byte) *T {
	return &T{Subscription: id, Reason: msg}
}
func (en *T) Label() string           { return L }
func (en *T) ReasonString() string    { return string(en.Reason) }
func (en *T) Write(w io.Writer) error { return envelopes.Write(w, en.Marshal) }

func (en *T) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, func(o []byte) []byte {
		o = en.Subscription.Marshal(o)
		o = append(o, ',')
		return text.AppendQuote(o, en.Reason, text.NostrEscape)
	})
}

func (en *T) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 1)
	if err != nil {
		return
	}
	en.Subscription = &subscription.Id{}
	if err = en.Subscription.Unmarshal(el[0]); err != nil {
		return
	}
	en.Reason = nil
	if len(el) > 1 {
		en.Reason, err = envelopes.String(el[1])
	}
	return
}

func Parse(b []byte) (t *T, err error) {
	t = New()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}
