// Package event is the nostr event, its canonical form and id derivation,
// signing and verification, and its JSON wire encoding.
package event

import (
	"nostrly.lol/eventid"
	"nostrly.lol/hex"
	"nostrly.lol/kind"
	"nostrly.lol/tags"
	"nostrly.lol/timestamp"
)

// T is the primary datatype of nostr. This is the form of the structure that
// defines its JSON string based format.
type T struct {
	// ID is the SHA256 hash of the canonical encoding of the event in binary
	// format.
	ID []byte
	// Pubkey is the public key of the event creator in binary format.
	Pubkey []byte
	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt *timestamp.T
	// Kind is the nostr protocol code for the type of event. See kind.T
	Kind *kind.T
	// Tags are a list of tags, which are a list of strings usually structured
	// as a 3 layer scheme indicating specific features of an event.
	Tags *tags.T
	// Content is an arbitrary string that can contain anything, but usually
	// conforming to a specification relating to the Kind and the Tags.
	Content []byte
	// Sig is the signature on the ID hash that validates as coming from the
	// Pubkey in binary format.
	Sig []byte
}

// C is a channel of events.
type C chan *T

// New returns an empty event.
func New() (ev *T) { return &T{} }

// Serialize renders the event as its JSON wire form.
func (ev *T) Serialize() (b []byte) { return ev.Marshal(nil) }

// EventID returns the ID as an eventid.T.
func (ev *T) EventID() (eid *eventid.T) { return eventid.NewWith(ev.ID) }

// Clone returns a deep copy of the event.
func (ev *T) Clone() (c *T) {
	c = &T{
		ID:      append([]byte(nil), ev.ID...),
		Pubkey:  append([]byte(nil), ev.Pubkey...),
		Content: append([]byte(nil), ev.Content...),
		Sig:     append([]byte(nil), ev.Sig...),
	}
	if ev.CreatedAt != nil {
		c.CreatedAt = ev.CreatedAt.Clone()
	}
	if ev.Kind != nil {
		c.Kind = kind.New(ev.Kind.K)
	}
	if ev.Tags != nil {
		c.Tags = ev.Tags.Clone()
	}
	return
}

// string and number forms for consumers that don't want to deal in bytes.

func (ev *T) AsJSON() (s string)         { return string(ev.Marshal(nil)) }
func (ev *T) Author() (s string)         { return hex.Enc(ev.Pubkey) }
func (ev *T) IDString() (s string)       { return hex.Enc(ev.ID) }
func (ev *T) CreatedAtInt64() (i int64)  { return ev.CreatedAt.I64() }
func (ev *T) KindInt32() (i int32)       { return ev.Kind.ToI32() }
func (ev *T) SigString() (s string)      { return hex.Enc(ev.Sig) }
func (ev *T) TagStrings() (s [][]string) { return ev.Tags.ToStringSlice() }
func (ev *T) ContentString() (s string)  { return string(ev.Content) }
