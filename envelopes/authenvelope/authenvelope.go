// Package authenvelope defines the auth challenge (relay message) and response
// (client message) of the NIP-42 authentication protocol.
package authenvelope

import (
	"io"

	"nostrly.lol/chk"
	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/event"
	"nostrly.lol/text"
)

const L = "AUTH"

type Challenge struct {
	Challenge []byte
}

var _ codec.Envelope = (*Challenge)(nil)

func NewChallenge() *Challenge { return &Challenge{} }
func NewChallengeWith[V string | []byte](challenge V) *Challenge {
	return &Challenge{[]byte(challenge)}
}
func (en *Challenge) Label() string           { return L }
func (en *Challenge) Write(w io.Writer) error { return envelopes.Write(w, en.Marshal) }

func (en *Challenge) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, func(o []byte) []byte {
		return text.AppendQuote(o, en.Challenge, text.NostrEscape)
	})
}

func (en *Challenge) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 1)
	if err != nil {
		return
	}
	en.Challenge, err = envelopes.String(el[0])
	return
}

func ParseChallenge(b []byte) (t *Challenge, err error) {
	t = NewChallenge()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}

// Response is the signed kind 22242 event answering a Challenge.
type Response struct {
	Event *event.T
}

var _ codec.Envelope = (*Response)(nil)

func NewResponse() *Response                 { return &Response{} }
func NewResponseWith(ev *event.T) *Response  { return &Response{Event: ev} }
func (en *Response) Label() string           { return L }
func (en *Response) Write(w io.Writer) error { return envelopes.Write(w, en.Marshal) }

func (en *Response) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, en.Event.Marshal)
}

func (en *Response) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 1)
	if err != nil {
		return
	}
	en.Event = event.New()
	if err = en.Event.Unmarshal(el[0]); chk.D(err) {
		return
	}
	return
}

func ParseResponse(b []byte) (t *Response, err error) {
	t = NewResponse()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}
