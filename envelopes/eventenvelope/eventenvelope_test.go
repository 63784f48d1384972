package eventenvelope

import (
	"bytes"
	"testing"

	"nostrly.lol/builder"
	"nostrly.lol/p256k"
	"nostrly.lol/subscription"
	"nostrly.lol/tag"
)

func TestSubmission(t *testing.T) {
	s, err := p256k.New()
	if err != nil {
		t.Fatal(err)
	}
	ev, err := builder.TextNote("hello \"world\"\n").
		Tags(tag.New("t", "nostr")).Sign(s)
	if err != nil {
		t.Fatal(err)
	}
	b := NewSubmissionWith(ev).Marshal(nil)
	if !bytes.HasPrefix(b, []byte(`["EVENT",{"id":"`)) {
		t.Fatalf("bad encoding %s", b)
	}
	env, err := Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if err = env.T.Verify(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(env.T.Serialize(), ev.Serialize()) {
		t.Fatalf("got  %s\nwant %s", env.T.Serialize(), ev.Serialize())
	}
}

func TestResult(t *testing.T) {
	s, err := p256k.New()
	if err != nil {
		t.Fatal(err)
	}
	ev, err := builder.TextNote("hi").Sign(s)
	if err != nil {
		t.Fatal(err)
	}
	sub := subscription.MustNew("feed")
	b := NewResultWith(sub, ev).Marshal(nil)
	if !bytes.HasPrefix(b, []byte(`["EVENT","feed",{`)) {
		t.Fatalf("bad encoding %s", b)
	}
	env, err := ParseResult(b)
	if err != nil {
		t.Fatal(err)
	}
	if env.Subscription.String() != "feed" || !bytes.Equal(env.Event.ID, ev.ID) {
		t.Fatalf("got %s %s", env.Subscription, env.Event.IDString())
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{
		`["EVENT"]`,
		`["EVENT","feed"]`,
		`["EVENT",{"id":"zz"}]`,
		`["OK",{}]`,
	} {
		if _, err := ParseResult([]byte(in)); err == nil {
			t.Fatalf("%s: expected an error", in)
		}
	}
}
