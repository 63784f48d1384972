package event

import (
	"nostrly.lol/hex"
	"nostrly.lol/kind"
	"nostrly.lol/sha256"
	"nostrly.lol/tags"
	"nostrly.lol/text"
	"nostrly.lol/timestamp"
)

// ToCanonical appends the canonical encoding used to derive the event ID:
//
//	[0,"<pubkey hex>",<created_at>,<kind>,<tags>,"<content>"]
//
// with no whitespace and NIP-01 string escaping.
func (ev *T) ToCanonical(dst []byte) (b []byte) {
	return appendCanonical(dst, ev.Pubkey, ev.CreatedAt, ev.Kind, ev.Tags, ev.Content)
}

func appendCanonical(dst, pubkey []byte, createdAt *timestamp.T, k *kind.T,
	tt *tags.T, content []byte) (b []byte) {

	b = dst
	b = append(b, "[0,\""...)
	b = hex.EncAppend(b, pubkey)
	b = append(b, "\","...)
	b = createdAt.Marshal(b)
	b = append(b, ',')
	b = k.Marshal(b)
	b = append(b, ',')
	b = tt.Marshal(b)
	b = append(b, ',')
	b = text.AppendQuote(b, content, text.NostrEscape)
	b = append(b, ']')
	return
}

// Hash is the sha256 digest used for event IDs.
func Hash(in []byte) (out []byte) {
	h := sha256.Sum256(in)
	return h[:]
}

// ComputeID derives the ID of an event with the given fields, without
// needing an event.T.
func ComputeID(pubkey []byte, createdAt *timestamp.T, k *kind.T, tt *tags.T,
	content []byte) (id []byte) {

	return Hash(appendCanonical(nil, pubkey, createdAt, k, tt, content))
}

// GetIDBytes returns the raw SHA256 hash of the canonical form of an event.T.
func (ev *T) GetIDBytes() []byte { return Hash(ev.ToCanonical(nil)) }
