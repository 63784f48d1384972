package bech32encoding

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/hex"
	"nostrly.lol/p256k"
)

const (
	// MinKeyStringLen is 56 because Bech32 needs 52 characters plus 4 for the HRP,
	// any string shorter than this cannot be a nostr key.
	MinKeyStringLen = 56
	HexKeyLen       = 64
	Bech32HRPLen    = 4
)

var (
	SecHRP = []byte("nsec")
	PubHRP = []byte("npub")
)

// ConvertForBech32 performs the bit expansion required for encoding into Bech32.
func ConvertForBech32(b8 []byte) (b5 []byte, err error) {
	return bech32.ConvertBits(b8, 8, 5, true)
}

// ConvertFromBech32 collapses together the bit expanded 5 bit numbers encoded
// in bech32.
func ConvertFromBech32(b5 []byte) (b8 []byte, err error) {
	return bech32.ConvertBits(b5, 5, 8, false)
}

func encode(hrp, b []byte, size int) (enc []byte, err error) {
	if len(b) != size {
		err = errorf.E("%s key must be %d bytes, got %d", hrp, size, len(b))
		return
	}
	var b5 []byte
	if b5, err = ConvertForBech32(b); chk.E(err) {
		return
	}
	var s string
	if s, err = bech32.Encode(string(hrp), b5); chk.E(err) {
		return
	}
	enc = []byte(s)
	return
}

func decode(hrp, encoded []byte, size int) (b []byte, err error) {
	if len(encoded) < MinKeyStringLen {
		err = errorf.D("bech32 key too short: %d characters", len(encoded))
		return
	}
	var h string
	var b5 []byte
	if h, b5, err = bech32.Decode(string(encoded)); chk.D(err) {
		return
	}
	if !bytes.Equal([]byte(h), hrp) {
		err = errorf.D("wrong human readable part, got '%s' want '%s'", h, hrp)
		return
	}
	if b, err = ConvertFromBech32(b5); chk.D(err) {
		return
	}
	if len(b) != size {
		err = errorf.D("%s decoded to %d bytes, want %d", hrp, len(b), size)
		return
	}
	return
}

// BinToNpub encodes a raw x-only public key as an npub.
func BinToNpub(pub []byte) (npub []byte, err error) {
	return encode(PubHRP, pub, p256k.PubKeyLen)
}

// BinToNsec encodes a raw secret key as an nsec.
func BinToNsec(sec []byte) (nsec []byte, err error) {
	return encode(SecHRP, sec, p256k.SecKeyLen)
}

// NpubToBin decodes an npub into the raw public key. The key is checked to be
// a valid curve point.
func NpubToBin(npub []byte) (pub []byte, err error) {
	if pub, err = decode(PubHRP, npub, p256k.PubKeyLen); err != nil {
		return
	}
	s := &p256k.Signer{}
	if err = s.InitPub(pub); err != nil {
		pub = nil
		return
	}
	return
}

// NsecToBin decodes an nsec into the raw secret key.
func NsecToBin(nsec []byte) (sec []byte, err error) {
	return decode(SecHRP, nsec, p256k.SecKeyLen)
}

// HexToNpub converts a hex encoded public key to an npub.
func HexToNpub(pubHex []byte) (npub []byte, err error) {
	var b []byte
	if b, err = hex.DecSized(string(pubHex), p256k.PubKeyLen); chk.D(err) {
		return
	}
	return BinToNpub(b)
}

// HexToNsec converts a hex encoded secret key to an nsec.
func HexToNsec(secHex []byte) (nsec []byte, err error) {
	var b []byte
	if b, err = hex.DecSized(string(secHex), p256k.SecKeyLen); chk.D(err) {
		return
	}
	return BinToNsec(b)
}

// NpubToHex decodes an npub to lower case hex.
func NpubToHex(npub []byte) (pubHex []byte, err error) {
	var b []byte
	if b, err = NpubToBin(npub); err != nil {
		return
	}
	return hex.EncAppend(nil, b), nil
}

// NsecToHex decodes an nsec to lower case hex.
func NsecToHex(nsec []byte) (secHex []byte, err error) {
	var b []byte
	if b, err = NsecToBin(nsec); err != nil {
		return
	}
	return hex.EncAppend(nil, b), nil
}
