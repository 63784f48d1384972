// Package reqenvelope is the REQ message, opening a subscription with a set
// of filters.
package reqenvelope

import (
	"io"

	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/filters"
	"nostrly.lol/subscription"
)

const L = "REQ"

type T struct {
	Subscription *subscription.Id
	Filters      *filters.T
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{Filters: filters.New()} }

func NewFrom(id *subscription.Id, ff *filters.T) *T {
	return &T{Subscription: id, Filters: ff}
}

func (en *T) Label() string           { return L }
func (en *T) Write(w io.Writer) error { return envelopes.Write(w, en.Marshal) }

func (en *T) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, func(o []byte) []byte {
		o = en.Subscription.Marshal(o)
		if en.Filters.Len() > 0 {
			o = append(o, ',')
			o = en.Filters.MarshalElements(o)
		}
		return o
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
	en.Filters = filters.New()
	return en.Filters.FromElements(el[1:])
}

func Parse(b []byte) (t *T, err error) {
	t = New()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}
