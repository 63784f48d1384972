package eoseenvelope

import (
	"testing"

	"nostrly.lol/subscription"
)

func TestMarshalParse(t *testing.T) {
	for range 100 {
		s := subscription.NewStd()
		b := NewFrom(s).Marshal(nil)
		if string(b) != `["EOSE","`+s.String()+`"]` {
			t.Fatalf("bad encoding %s", b)
		}
		env, err := Parse(b)
		if err != nil {
			t.Fatal(err)
		}
		if !env.Subscription.Equal(s) {
			t.Fatalf("got %s want %s", env.Subscription, s)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{`["EOSE"]`, `["EOSE",1]`, `["EOSE",""]`, `["CLOSED","x"]`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("%s: expected an error", in)
		}
	}
}
