package noticeenvelope

import (
	"testing"
)

func TestMarshalParse(t *testing.T) {
	b := NewFrom("restarting in \"5\" minutes\n").Marshal(nil)
	want := `["NOTICE","restarting in \"5\" minutes\n"]`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
	env, err := Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(env.Message) != "restarting in \"5\" minutes\n" {
		t.Fatalf("got %q", env.Message)
	}
	if _, err = Parse([]byte(`["NOTICE"]`)); err == nil {
		t.Fatal("missing message not detected")
	}
}
