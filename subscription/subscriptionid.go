// Package subscription is a set of helpers for managing nostr websocket
// subscription Ids, used with the REQ method to maintain an association between
// a REQ and resultant messages such as EVENT, EOSE and CLOSED.
package subscription

import (
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"lukechampine.com/frand"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/text"
)

// MaxLen is the longest subscription id relays are required to accept.
const MaxLen = 64

type Id struct {
	T []byte
}

func (si *Id) String() string {
	if si == nil {
		return ""
	}
	return string(si.T)
}

// IsValid returns true if the subscription id is between 1 and 64 characters.
// Invalid means too long or not present.
func (si *Id) IsValid() bool { return si != nil && len(si.T) <= MaxLen && len(si.T) > 0 }

// NewId inspects a string and converts to Id if it is valid. Invalid means
// length == 0 or length > 64.
func NewId[V string | []byte](s V) (*Id, error) {
	si := &Id{T: []byte(s)}
	if !si.IsValid() {
		return nil, errorf.D("invalid subscription Id - length %d < 1 or > %d",
			len(si.T), MaxLen)
	}
	return si, nil
}

// MustNew is the same as NewId except it doesn't check if you feed it rubbish.
//
// DO NOT USE WITHOUT CHECKING THE Id IS NOT NIL AND > 0 AND <= 64
func MustNew[V string | []byte](s V) *Id { return &Id{T: []byte(s)} }

const StdLen = 14
const StdHRP = "su"

// NewStd creates a new standard subscription ID, which is a 14 byte long (112
// bit) random identifier, encoded using bech32.
func NewStd() (t *Id) {
	var err error
	var bits5 []byte
	if bits5, err = bech32.ConvertBits(frand.Bytes(StdLen), 8, 5, true); chk.E(err) {
		return
	}
	var dst string
	if dst, err = bech32.Encode(StdHRP, bits5); chk.E(err) {
		return
	}
	t = &Id{T: []byte(dst)}
	return
}

// Equal compares two ids.
func (si *Id) Equal(o *Id) bool { return si.String() == o.String() }

// Marshal renders the subscription.Id as a JSON string.
func (si *Id) Marshal(dst []byte) (b []byte) {
	return text.AppendQuote(dst, si.T, text.NostrEscape)
}

// Unmarshal a subscription.Id from a JSON string.
func (si *Id) Unmarshal(b []byte) (err error) {
	var s string
	if err = json.Unmarshal(b, &s); chk.D(err) {
		return
	}
	si.T = []byte(s)
	if !si.IsValid() {
		err = errorf.D("invalid subscription Id - length %d < 1 or > %d",
			len(si.T), MaxLen)
	}
	return
}
