package authenvelope

import (
	"bytes"
	"testing"

	"nostrly.lol/auth"
	"nostrly.lol/p256k"
)

func TestChallenge(t *testing.T) {
	ch := auth.GenerateChallenge()
	b := NewChallengeWith(ch).Marshal(nil)
	if string(b) != `["AUTH","`+string(ch)+`"]` {
		t.Fatalf("bad encoding %s", b)
	}
	env, err := ParseChallenge(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(env.Challenge, ch) {
		t.Fatalf("got %s want %s", env.Challenge, ch)
	}
}

func TestResponse(t *testing.T) {
	s, err := p256k.New()
	if err != nil {
		t.Fatal(err)
	}
	ch := auth.GenerateChallenge()
	ev := auth.CreateUnsigned(s.Pub(), ch, "wss://relay.example.com")
	if err = ev.Sign(s); err != nil {
		t.Fatal(err)
	}
	b := NewResponseWith(ev).Marshal(nil)
	env, err := ParseResponse(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(env.Event.Serialize(), ev.Serialize()) {
		t.Fatalf("got  %s\nwant %s", env.Event.Serialize(), ev.Serialize())
	}
	var ok bool
	if ok, err = auth.Validate(env.Event, ch, "wss://relay.example.com"); !ok {
		t.Fatalf("response does not validate: %v", err)
	}
}

func TestParseRejects(t *testing.T) {
	if _, err := ParseChallenge([]byte(`["AUTH"]`)); err == nil {
		t.Fatal("missing challenge not detected")
	}
	if _, err := ParseResponse([]byte(`["AUTH","not an event"]`)); err == nil {
		t.Fatal("string in place of an event not detected")
	}
}
