// Package bech32encoding converts nostr keys to and from the NIP-19 bech32
// forms, npub for public keys and nsec for secret keys.
package bech32encoding
