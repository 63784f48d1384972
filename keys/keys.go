// Package keys has helpers for generating and parsing nostr keys in their
// hex and bech32 forms.
package keys

import (
	"bytes"
	"strings"

	"nostrly.lol/bech32encoding"
	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/hex"
	"nostrly.lol/p256k"
	"nostrly.lol/signer"
)

// GenerateSecretKeyHex creates a new secret key and returns it as hex.
func GenerateSecretKeyHex() (sks string) {
	var err error
	s := &p256k.Signer{}
	if err = s.Generate(); chk.E(err) {
		return
	}
	sks = hex.Enc(s.Sec())
	return
}

// SecretToPubKeyBytes derives the x-only public key of a raw secret key.
func SecretToPubKeyBytes(skb []byte) (pk []byte, err error) {
	s := &p256k.Signer{}
	if err = s.InitSec(skb); chk.D(err) {
		return
	}
	return s.Pub(), nil
}

// SecretToPubKeyHex derives the hex public key of a hex secret key.
func SecretToPubKeyHex(sk string) (pk string, err error) {
	var b []byte
	if b, err = hex.DecSized(sk, p256k.SecKeyLen); chk.D(err) {
		return
	}
	if b, err = SecretToPubKeyBytes(b); err != nil {
		return
	}
	return hex.Enc(b), nil
}

// IsValid32ByteHex checks a string is 64 characters of lower case hex.
func IsValid32ByteHex(pk string) bool {
	if strings.ToLower(pk) != pk {
		return false
	}
	dec, err := hex.Dec(pk)
	return err == nil && len(dec) == 32
}

// IsValidPublicKey reports whether pk is hex of a valid x-only curve point.
func IsValidPublicKey(pk string) bool {
	if !IsValid32ByteHex(pk) {
		return false
	}
	v, _ := hex.Dec(pk)
	s := &p256k.Signer{}
	return s.InitPub(v) == nil
}

// ParseSecret accepts a secret key as 64 hex characters or an nsec and
// returns a signer initialised with it.
func ParseSecret(s string) (sign signer.I, err error) {
	s = strings.TrimSpace(s)
	var b []byte
	switch {
	case bytes.HasPrefix([]byte(s), bech32encoding.SecHRP):
		if b, err = bech32encoding.NsecToBin([]byte(s)); err != nil {
			return
		}
	case len(s) == bech32encoding.HexKeyLen:
		if b, err = hex.Dec(s); err != nil {
			err = errorf.D("invalid hex secret key: %w", err)
			return
		}
	default:
		err = errorf.D("secret key must be 64 hex characters or an nsec")
		return
	}
	k := &p256k.Signer{}
	if err = k.InitSec(b); err != nil {
		return
	}
	return k, nil
}

// ParsePublic accepts a public key as 64 hex characters or an npub and
// returns the raw key bytes.
func ParsePublic(s string) (pub []byte, err error) {
	s = strings.TrimSpace(s)
	if bytes.HasPrefix([]byte(s), bech32encoding.PubHRP) {
		return bech32encoding.NpubToBin([]byte(s))
	}
	if !IsValidPublicKey(strings.ToLower(s)) {
		err = errorf.D("invalid public key: '%s'", s)
		return
	}
	return hex.Dec(strings.ToLower(s))
}
