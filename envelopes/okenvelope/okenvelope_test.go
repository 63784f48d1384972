package okenvelope

import (
	"testing"

	"nostrly.lol/eventid"
)

const id = "4376c65d2f232afbe9b882a35baa4f6fe8667c4e684749af565f981833ed6a65"

func TestMarshal(t *testing.T) {
	b := NewFrom(mustDecode(t), false,
		[]byte("blocked: \"spam\"")).Marshal(nil)
	want := `["OK","` + id + `",false,"blocked: \"spam\""]`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]struct {
		ok     bool
		reason string
	}{
		`["OK","` + id + `",true,""]`:                       {true, ""},
		`["OK","` + id + `",true]`:                          {true, ""},
		`["OK","` + id + `",false,"rate-limited: slow"]`:    {false, "rate-limited: slow"},
		` [ "OK" , "` + id + `" , false , "a\nb" ] `:        {false, "a\nb"},
		`["OK","` + id + `",false,"pow: difficulty 25<30"]`: {false, "pow: difficulty 25<30"},
	} {
		env, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if env.EventID.String() != id || env.OK != want.ok ||
			env.ReasonString() != want.reason {
			t.Fatalf("%s: got %s %v %q", in, env.EventID, env.OK, env.Reason)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{
		`["OK"]`,
		`["OK","` + id + `"]`,
		`["OK","abcd",true,""]`,
		`["OK","` + id + `","true",""]`,
		`["NOTICE","` + id + `",true,""]`,
	} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("%s: expected an error", in)
		}
	}
}

func mustDecode(t *testing.T) []byte {
	ei, err := eventid.NewFromString(id)
	if err != nil {
		t.Fatal(err)
	}
	return ei.Bytes()
}
