package event

import (
	"encoding/json"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/hex"
	"nostrly.lol/kind"
	"nostrly.lol/tags"
	"nostrly.lol/text"
	"nostrly.lol/timestamp"
)

var (
	jID        = []byte("id")
	jPubkey    = []byte("pubkey")
	jCreatedAt = []byte("created_at")
	jKind      = []byte("kind")
	jTags      = []byte("tags")
	jContent   = []byte("content")
	jSig       = []byte("sig")
)

// Marshal appends the JSON object form of the event to dst, with keys in
// the conventional order and hex fields in lower case.
func (ev *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = append(b, '{')
	b = text.JSONKey(b, jID)
	b = text.AppendQuote(b, ev.ID, hex.EncAppend)
	b = append(b, ',')
	b = text.JSONKey(b, jPubkey)
	b = text.AppendQuote(b, ev.Pubkey, hex.EncAppend)
	b = append(b, ',')
	b = text.JSONKey(b, jCreatedAt)
	b = ev.CreatedAt.Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, jKind)
	b = ev.Kind.Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, jTags)
	b = ev.Tags.Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, jContent)
	b = text.AppendQuote(b, ev.Content, text.NostrEscape)
	b = append(b, ',')
	b = text.JSONKey(b, jSig)
	b = text.AppendQuote(b, ev.Sig, hex.EncAppend)
	b = append(b, '}')
	return
}

// MarshalJSON implements json.Marshaler so events nest inside other values.
func (ev *T) MarshalJSON() ([]byte, error) { return ev.Marshal(nil), nil }

// UnmarshalJSON implements json.Unmarshaler.
func (ev *T) UnmarshalJSON(b []byte) (err error) { return ev.Unmarshal(b) }

// Unmarshal decodes the JSON object form of an event into ev. Field lengths
// are not checked here, that is the job of Verify.
func (ev *T) Unmarshal(b []byte) (err error) {
	j := &J{}
	if err = json.Unmarshal(b, j); chk.D(err) {
		return
	}
	var e *T
	if e, err = j.ToEvent(); err != nil {
		return
	}
	*ev = *e
	return
}

// J is the string based form of an event, as produced by encoding/json.
type J struct {
	ID        string     `json:"id"`
	Pubkey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int64      `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// ToEventJ converts the event to its string based form.
func (ev *T) ToEventJ() (j *J) {
	return &J{
		ID:        ev.IDString(),
		Pubkey:    ev.Author(),
		CreatedAt: ev.CreatedAt.I64(),
		Kind:      int64(ev.Kind.ToU16()),
		Tags:      ev.Tags.ToStringSlice(),
		Content:   ev.ContentString(),
		Sig:       ev.SigString(),
	}
}

// ToEvent converts the string based form to an event.T.
func (j *J) ToEvent() (ev *T, err error) {
	ev = &T{}
	if ev.ID, err = hex.Dec(j.ID); err != nil {
		err = errorf.D("event id is not hex: %w", err)
		return nil, err
	}
	if ev.Pubkey, err = hex.Dec(j.Pubkey); err != nil {
		err = errorf.D("event pubkey is not hex: %w", err)
		return nil, err
	}
	if ev.Sig, err = hex.Dec(j.Sig); err != nil {
		err = errorf.D("event sig is not hex: %w", err)
		return nil, err
	}
	if j.Kind < 0 || j.Kind > 0xffff {
		err = errorf.D("event kind %d out of range", j.Kind)
		return nil, err
	}
	ev.CreatedAt = timestamp.FromUnix(j.CreatedAt)
	ev.Kind = kind.New(j.Kind)
	ev.Tags = tags.FromStringSlices(j.Tags...)
	ev.Content = []byte(j.Content)
	return
}
