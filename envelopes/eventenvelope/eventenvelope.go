// Package eventenvelope is the EVENT message, a Submission when a client
// publishes an event and a Result when a relay delivers one for a
// subscription.
package eventenvelope

import (
	"io"

	"nostrly.lol/chk"
	"nostrly.lol/codec"
	"nostrly.lol/envelopes"
	"nostrly.lol/event"
	"nostrly.lol/subscription"
)

const L = "EVENT"

// Submission is a request from a client for a relay to store an event.
type Submission struct {
	*event.T
}

var _ codec.Envelope = (*Submission)(nil)

func NewSubmission() *Submission                { return &Submission{T: &event.T{}} }
func NewSubmissionWith(ev *event.T) *Submission { return &Submission{T: ev} }
func (en *Submission) Label() string            { return L }
func (en *Submission) Write(w io.Writer) error  { return envelopes.Write(w, en.Marshal) }

func (en *Submission) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, en.T.Marshal)
}

func (en *Submission) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 1)
	if err != nil {
		return
	}
	en.T = event.New()
	if err = en.T.Unmarshal(el[0]); chk.D(err) {
		return
	}
	return
}

// Result is an event matching a filter associated with a subscription.
type Result struct {
	Subscription *subscription.Id
	Event        *event.T
}

var _ codec.Envelope = (*Result)(nil)

func NewResult() *Result { return &Result{Event: &event.T{}} }

func NewResultWith(s *subscription.Id, ev *event.T) *Result {
	return &Result{Subscription: s, Event: ev}
}

func (en *Result) Label() string           { return L }
func (en *Result) Write(w io.Writer) error { return envelopes.Write(w, en.Marshal) }

func (en *Result) Marshal(dst []byte) (b []byte) {
	return envelopes.Marshal(dst, L, func(o []byte) []byte {
		o = en.Subscription.Marshal(o)
		o = append(o, ',')
		return en.Event.Marshal(o)
	})
}

func (en *Result) Unmarshal(b []byte) (err error) {
	el, err := envelopes.Elements(b, L, 2)
	if err != nil {
		return
	}
	en.Subscription = &subscription.Id{}
	if err = en.Subscription.Unmarshal(el[0]); err != nil {
		return
	}
	en.Event = event.New()
	if err = en.Event.Unmarshal(el[1]); chk.D(err) {
		return
	}
	return
}

// ParseResult decodes a relay EVENT message.
func ParseResult(b []byte) (t *Result, err error) {
	t = NewResult()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}

// Parse decodes a client EVENT message.
func Parse(b []byte) (t *Submission, err error) {
	t = NewSubmission()
	if err = t.Unmarshal(b); err != nil {
		return nil, err
	}
	return
}
