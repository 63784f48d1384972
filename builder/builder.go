// Package builder assembles well formed events: it fills in the creation
// time, appends the protocol tags for expiration, protection and proof of
// work, and hands the result to a signer.
package builder

import (
	"strconv"

	"nostrly.lol/chk"
	"nostrly.lol/event"
	"nostrly.lol/kind"
	"nostrly.lol/signer"
	"nostrly.lol/tag"
	"nostrly.lol/tags"
	"nostrly.lol/timestamp"
)

// MaxDifficulty caps the proof of work target, anything higher will not
// finish in a useful time on a CPU.
const MaxDifficulty = 40

// T accumulates the fields of an event. A T can be reused, each Build starts
// from a copy of its tags.
type T struct {
	kind       *kind.T
	content    []byte
	tags       *tags.T
	createdAt  *timestamp.T
	expiration *timestamp.T
	protected  bool
	difficulty int
}

// New starts an event of the given kind and content.
func New(k *kind.T, content string) (b *T) {
	return &T{kind: k, content: []byte(content), tags: tags.NewWithCap(4)}
}

// TextNote starts a kind 1 short text note.
func TextNote(content string) (b *T) { return New(kind.TextNote, content) }

// Tags appends tags, in order.
func (b *T) Tags(tt ...*tag.T) *T {
	b.tags = b.tags.AppendTags(tt...)
	return b
}

// CustomCreatedAt sets the created_at instead of the time of Build.
func (b *T) CustomCreatedAt(ts *timestamp.T) *T {
	b.createdAt = ts
	return b
}

// Expiration adds a NIP-40 expiration tag.
func (b *T) Expiration(ts *timestamp.T) *T {
	b.expiration = ts
	return b
}

// Protected adds the NIP-70 "-" tag.
func (b *T) Protected() *T {
	b.protected = true
	return b
}

// POW mines a NIP-13 nonce tag until the id has at least difficulty leading
// zero bits.
func (b *T) POW(difficulty int) *T {
	if difficulty > MaxDifficulty {
		difficulty = MaxDifficulty
	}
	b.difficulty = difficulty
	return b
}

// Difficulty is the proof of work target, zero when none was requested.
func (b *T) Difficulty() int { return b.difficulty }

// Clone returns a builder that can be changed without affecting b.
func (b *T) Clone() (c *T) {
	cc := *b
	cc.content = append([]byte(nil), b.content...)
	cc.tags = b.tags.Clone()
	if b.createdAt != nil {
		cc.createdAt = b.createdAt.Clone()
	}
	if b.expiration != nil {
		cc.expiration = b.expiration.Clone()
	}
	return &cc
}

// Build returns the unsigned event for pubkey. It has no ID or Sig unless
// proof of work was requested, in which case the ID is the mined one.
func (b *T) Build(pubkey []byte) (ev *event.T) {
	ev = &event.T{
		Pubkey:  pubkey,
		Kind:    b.kind,
		Content: append([]byte(nil), b.content...),
		Tags:    b.tags.Clone(),
	}
	if ev.Tags == nil {
		ev.Tags = tags.NewWithCap(2)
	}
	if b.createdAt != nil {
		ev.CreatedAt = b.createdAt.Clone()
	} else {
		ev.CreatedAt = timestamp.Now()
	}
	if b.expiration != nil {
		ev.Tags = ev.Tags.AppendTags(tag.New(tag.Expiration, []byte(b.expiration.String())))
	}
	if b.protected {
		ev.Tags = ev.Tags.AppendTags(tag.New(tag.Protected))
	}
	if b.difficulty > 0 {
		ev.ID = mine(ev, b.difficulty)
	}
	return
}

// Sign builds the event for the signer's key and signs it.
func (b *T) Sign(s signer.I) (ev *event.T, err error) {
	ev = b.Build(s.Pub())
	if err = ev.Sign(s); chk.E(err) {
		return nil, err
	}
	return
}

// mine appends a nonce tag to ev and counts it up until the id meets the
// target. The tag is the last one so only its value changes per round.
func mine(ev *event.T, difficulty int) (id []byte) {
	target := []byte(strconv.Itoa(difficulty))
	nonce := tag.New(tag.Nonce, []byte("0"), target)
	ev.Tags = ev.Tags.AppendTags(nonce)
	n := make([]byte, 0, 20)
	for i := uint64(0); ; i++ {
		n = strconv.AppendUint(n[:0], i, 10)
		nonce.Set(1, n)
		if id = ev.GetIDBytes(); event.Difficulty(id) >= difficulty {
			// the tag must own its value, n is reused
			nonce.Set(1, append([]byte(nil), n...))
			return
		}
	}
}
