// Package okenvelope is the OK message, a relay's verdict on a published
// event.
package okenvelope

import (
	"encoding/json"
	"io"

	"nostrly.lol/chk"
	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/errorf"
	"nostrly.lol/eventid"
	"nostrly.lol/text"
)

const L = "OK"

type T struct {
	EventID *eventid.T
	OK      bool
	Reason  []byte
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{} }

func NewFrom[V string | []byte](eid V, ok bool, msg ...[]byte) *T {
	var m []byte
	if len(msg) > 0 {
		m = msg[0]
	}
	return &T{EventID: eventid.NewWith(eid), OK: ok, Reason: m}
}

func (en *T) Label() string           { return L }
func (en *T) ReasonString() string    { return string(en.Reason) }
func (en *T) Write(w io.Writer) error { return envelopes.Write(w, en.Marshal) }

func (en *T) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, func(o []byte) []byte {
		o = append(o, '"')
		o = en.EventID.ByteString(o)
		o = append(o, '"', ',')
		o = text.MarshalBool(o, en.OK)
		o = append(o, ',')
		return text.AppendQuote(o, en.Reason, text.NostrEscape)
	})
}

// Unmarshal decodes an OK message. The reason is optional, some relays
// leave it off when accepting.
func (en *T) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 2)
	if err != nil {
		return
	}
	var idHex []byte
	if idHex, err = envelopes.String(el[0]); err != nil {
		return
	}
	if en.EventID, err = eventid.NewFromString(string(idHex)); err != nil {
		err = errorf.D("OK message has invalid event id: %w", err)
		return
	}
	if err = json.Unmarshal(el[1], &en.OK); chk.D(err) {
		return
	}
	en.Reason = nil
	if len(el) > 2 {
		if en.Reason, err = envelopes.String(el[2]); err != nil {
			return
		}
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
