// Package p256k is the BIP-340 schnorr signer for nostr x-only keys on the
// secp256k1 curve, implemented with the pure Go btcec library.
package p256k

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/signer"
)

const (
	// SecKeyLen is the length of a raw secret key.
	SecKeyLen = secp256k1.PrivKeyBytesLen
	// PubKeyLen is the length of an x-only public key.
	PubKeyLen = schnorr.PubKeyBytesLen
	// SigLen is the length of a BIP-340 signature.
	SigLen = schnorr.SignatureSize
	// MsgLen is the length of a message that can be signed, a sha256 hash.
	MsgLen = 32
)

// Signer is an implementation of signer.I.
//
// Either the secret or the public key must be initialised, the former for
// generating signatures, the latter for verifying them.
type Signer struct {
	SecretKey *secp256k1.PrivateKey
	PublicKey *secp256k1.PublicKey
	skb, pkb  []byte
}

var _ signer.I = &Signer{}

// New returns a fresh signer with a random key, failing only if the
// system entropy source does.
func New() (s *Signer, err error) {
	s = &Signer{}
	if err = s.Generate(); chk.F(err) {
		return nil, err
	}
	return
}

// Generate creates a new key pair.
func (s *Signer) Generate() (err error) {
	if s.SecretKey, err = secp256k1.GeneratePrivateKey(); err != nil {
		err = errorf.F("p256k: entropy source failed: %w", err)
		return
	}
	s.skb = s.SecretKey.Serialize()
	s.PublicKey = s.SecretKey.PubKey()
	s.pkb = schnorr.SerializePubKey(s.PublicKey)
	return
}

// InitSec initialises a Signer using raw secret key bytes.
func (s *Signer) InitSec(sec []byte) (err error) {
	if len(sec) != SecKeyLen {
		err = errorf.E("p256k: sec key must be %d bytes, got %d", SecKeyLen, len(sec))
		return
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(sec); overflow || k.IsZero() {
		err = errorf.E("p256k: sec key is not a valid scalar")
		return
	}
	s.SecretKey = secp256k1.NewPrivateKey(&k)
	s.skb = s.SecretKey.Serialize()
	s.PublicKey = s.SecretKey.PubKey()
	s.pkb = schnorr.SerializePubKey(s.PublicKey)
	return
}

// InitPub initializes a verification only Signer from raw x-only public key
// bytes.
func (s *Signer) InitPub(pub []byte) (err error) {
	if s.PublicKey, err = schnorr.ParsePubKey(pub); chk.D(err) {
		return
	}
	s.pkb = schnorr.SerializePubKey(s.PublicKey)
	return
}

// Sec returns the raw secret key bytes.
func (s *Signer) Sec() (b []byte) { return s.skb }

// Pub returns the raw BIP-340 schnorr public key bytes.
func (s *Signer) Pub() (b []byte) { return s.pkb }

// Sign a 32 byte message with the Signer. Requires an initialised secret
// key. Nonces are derived deterministically from the key and message.
func (s *Signer) Sign(msg []byte) (sig []byte, err error) {
	if s.SecretKey == nil {
		err = errorf.E("p256k: signer secret not initialized")
		return
	}
	if len(msg) != MsgLen {
		err = errorf.E("p256k: message must be %d bytes, got %d", MsgLen, len(msg))
		return
	}
	var si *schnorr.Signature
	if si, err = schnorr.Sign(s.SecretKey, msg); chk.E(err) {
		return
	}
	sig = si.Serialize()
	return
}

// Verify a message signature, only requires the public key is initialised.
// An error is only returned for an uninitialised signer, a malformed
// signature is simply not valid.
func (s *Signer) Verify(msg, sig []byte) (valid bool, err error) {
	if s.PublicKey == nil {
		err = errorf.E("p256k: pubkey not initialized")
		return
	}
	valid = verify(s.PublicKey, msg, sig)
	return
}

// Zero wipes the secret key.
func (s *Signer) Zero() {
	if s.SecretKey != nil {
		s.SecretKey.Zero()
	}
	for i := range s.skb {
		s.skb[i] = 0
	}
}

// Verify checks a BIP-340 signature of msg by the x-only pubkey pub. It
// never returns an error: anything malformed is just not a valid signature.
func Verify(pub, msg, sig []byte) bool {
	if len(pub) != PubKeyLen || len(msg) != MsgLen || len(sig) != SigLen {
		return false
	}
	pk, err := schnorr.ParsePubKey(pub)
	if err != nil {
		return false
	}
	return verify(pk, msg, sig)
}

func verify(pk *secp256k1.PublicKey, msg, sig []byte) bool {
	si, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return si.Verify(msg, pk)
}
