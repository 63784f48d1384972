// Package auth is the NIP-42 relay authentication event. The client builds
// its response with CreateUnsigned. GenerateChallenge and Validate are the
// relay's half of the exchange; the fake relays in the tests of ws and
// envelopes/authenvelope run them against the client.
package auth

import (
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"lukechampine.com/frand"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/event"
	"nostrly.lol/kind"
	"nostrly.lol/tag"
	"nostrly.lol/tags"
	"nostrly.lol/timestamp"
)

var (
	ChallengeTag = []byte("challenge")
	RelayTag     = []byte("relay")
)

// MaxSkew is how far the created_at of an auth event may be from now.
const MaxSkew = 10 * time.Minute

// GenerateChallenge creates a reasonable, 96 bit base64 challenge string.
func GenerateChallenge() (b []byte) {
	b = make([]byte, 16)
	base64.StdEncoding.Encode(b, frand.Bytes(12))
	return
}

// CreateUnsigned creates an event which should be sent via an "AUTH" command.
// If the authentication succeeds, the user will be authenticated as pubkey.
func CreateUnsigned(pubkey, challenge []byte, relayURL string) (ev *event.T) {
	return &event.T{
		Pubkey:    pubkey,
		CreatedAt: timestamp.Now(),
		Kind:      kind.ClientAuthentication,
		Content:   []byte{},
		Tags: tags.New(tag.New(RelayTag, []byte(relayURL)),
			tag.New(ChallengeTag, challenge)),
	}
}

// helper function for Validate.
func parseURL(input string) (*url.URL, error) {
	return url.Parse(strings.ToLower(strings.TrimSuffix(input, "/")))
}

// Validate checks whether event is a valid NIP-42 event for given challenge
// and relayURL. The result of the validation is encoded in the ok bool.
func Validate(evt *event.T, challenge []byte, relayURL string) (ok bool, err error) {
	if !evt.Kind.Equal(kind.ClientAuthentication) {
		err = errorf.D("event incorrect kind for auth: %d %s",
			evt.Kind.ToU16(), evt.Kind.Name())
		return
	}
	if evt.Tags.GetFirst(tag.New(ChallengeTag, challenge)) == nil {
		err = errorf.D("challenge tag missing from auth response")
		return
	}
	r := evt.Tags.GetFirstKey(RelayTag).Value()
	if len(r) == 0 {
		err = errorf.D("relay tag missing from auth response")
		return
	}
	var expected, found *url.URL
	if expected, err = parseURL(relayURL); chk.D(err) {
		return
	}
	if found, err = parseURL(string(r)); chk.D(err) {
		return
	}
	if expected.Scheme != found.Scheme || expected.Host != found.Host ||
		expected.Path != found.Path {
		err = errorf.D("relay url mismatch: expected '%s' got '%s'", expected, found)
		return
	}
	now := time.Now()
	if evt.CreatedAt.Time().After(now.Add(MaxSkew)) ||
		evt.CreatedAt.Time().Before(now.Add(-MaxSkew)) {
		err = errorf.D("auth event more than %v before or after current time", MaxSkew)
		return
	}
	// save for last, as it is the most expensive operation
	if err = evt.Verify(); err != nil {
		return
	}
	return true, nil
}
