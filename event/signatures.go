package event

import (
	"bytes"
	"errors"
	"fmt"

	"nostrly.lol/chk"
	"nostrly.lol/p256k"
	"nostrly.lol/sha256"
	"nostrly.lol/signer"
)

var (
	// ErrMalformed is returned by Verify for an event that is structurally
	// unusable: wrong field lengths or missing fields.
	ErrMalformed = errors.New("malformed event")
	// ErrInvalidID means the ID is not the hash of the canonical form.
	ErrInvalidID = errors.New("invalid event id")
	// ErrInvalidSignature means the signature does not verify against the ID
	// and pubkey.
	ErrInvalidSignature = errors.New("invalid event signature")
)

// Sign the event using the signer.I.
//
// Note that this only populates the Pubkey, ID and Sig. The caller must
// set the CreatedAt timestamp as intended.
func (ev *T) Sign(keys signer.I) (err error) {
	ev.Pubkey = keys.Pub()
	ev.ID = ev.GetIDBytes()
	if ev.Sig, err = keys.Sign(ev.ID); chk.E(err) {
		return
	}
	return
}

// VerifyID recomputes the ID from the event fields and compares it to the
// stored one.
func (ev *T) VerifyID() bool {
	if len(ev.ID) != sha256.Size {
		return false
	}
	return bytes.Equal(ev.GetIDBytes(), ev.ID)
}

// VerifySignature checks the signature is valid for the stored ID and
// Pubkey. It does not check the ID matches the content, see VerifyID.
func (ev *T) VerifySignature() bool { return p256k.Verify(ev.Pubkey, ev.ID, ev.Sig) }

// Verify checks structure, ID and signature, in that order, returning nil or
// an error wrapping ErrMalformed, ErrInvalidID or ErrInvalidSignature.
func (ev *T) Verify() (err error) {
	switch {
	case len(ev.ID) != sha256.Size:
		return fmt.Errorf("%w: id is %d bytes", ErrMalformed, len(ev.ID))
	case len(ev.Pubkey) != p256k.PubKeyLen:
		return fmt.Errorf("%w: pubkey is %d bytes", ErrMalformed, len(ev.Pubkey))
	case len(ev.Sig) != p256k.SigLen:
		return fmt.Errorf("%w: sig is %d bytes", ErrMalformed, len(ev.Sig))
	case ev.CreatedAt == nil || ev.Kind == nil || ev.Tags == nil:
		return fmt.Errorf("%w: missing created_at, kind or tags", ErrMalformed)
	}
	if !ev.VerifyID() {
		return fmt.Errorf("%w: %0x", ErrInvalidID, ev.ID)
	}
	if !ev.VerifySignature() {
		return fmt.Errorf("%w: %0x", ErrInvalidSignature, ev.ID)
	}
	return
}
