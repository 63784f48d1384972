package closeenvelope

import (
	"testing"

	"nostrly.lol/subscription"
)

func TestMarshalParse(t *testing.T) {
	s := subscription.MustNew("feed:1")
	b := NewFrom(s).Marshal(nil)
	if string(b) != `["CLOSE","feed:1"]` {
		t.Fatalf("bad encoding %s", b)
	}
	env, err := Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if env.ID.String() != "feed:1" {
		t.Fatalf("got %s", env.ID)
	}
	if _, err = Parse([]byte(`["CLOSE"]`)); err == nil {
		t.Fatal("missing id not detected")
	}
}
