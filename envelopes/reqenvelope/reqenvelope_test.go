package reqenvelope

import (
	"testing"

	"nostrly.lol/filter"
	"nostrly.lol/filters"
	"nostrly.lol/kind"
	"nostrly.lol/kinds"
	"nostrly.lol/subscription"
)

func TestMarshalParse(t *testing.T) {
	f1 := filter.New()
	f1.Kinds = kinds.New(kind.TextNote, kind.Reaction)
	f1.SetLimit(10)
	f2 := filter.New().AddTag('t', "nostr")
	b := NewFrom(subscription.MustNew("feed"), filters.New(f1, f2)).Marshal(nil)
	want := `["REQ","feed",{"kinds":[1,7],"limit":10},{"#t":["nostr"]}]`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
	env, err := Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if env.Subscription.String() != "feed" || env.Filters.Len() != 2 {
		t.Fatalf("got %s with %d filters", env.Subscription, env.Filters.Len())
	}
	if !env.Filters.F[0].Equal(f1) || !env.Filters.F[1].Equal(f2) {
		t.Fatalf("filters changed: %s", env.Filters)
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{`["REQ"]`, `["REQ",{}]`, `["REQ","x",{"kinds":"1"}]`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("%s: expected an error", in)
		}
	}
}
