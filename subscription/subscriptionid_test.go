package subscription

import (
	"bytes"
	"strings"
	"testing"

	"lukechampine.com/frand"
)

func TestMarshalUnmarshal(t *testing.T) {
	for range 100 {
		b := frand.Bytes(frand.Intn(48) + 1)
		// json strings carry text, keep it to printable ascii
		for i := range b {
			b[i] = ' ' + b[i]%('~'-' ')
		}
		si, err := NewId(b)
		if err != nil {
			t.Fatal(err)
		}
		m := si.Marshal(nil)
		ui := &Id{}
		if err = ui.Unmarshal(m); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if !bytes.Equal(ui.T, b) {
			t.Fatalf("got %q want %q", ui.T, b)
		}
	}
}

func TestNewStd(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		si := NewStd()
		if !si.IsValid() {
			t.Fatalf("invalid std id %s", si)
		}
		if !strings.HasPrefix(si.String(), StdHRP+"1") {
			t.Fatalf("std id has wrong prefix: %s", si)
		}
		if seen[si.String()] {
			t.Fatalf("duplicate id %s", si)
		}
		seen[si.String()] = true
	}
}

func TestInvalid(t *testing.T) {
	if _, err := NewId(""); err == nil {
		t.Fatal("empty id accepted")
	}
	if _, err := NewId(strings.Repeat("x", MaxLen+1)); err == nil {
		t.Fatal("long id accepted")
	}
	if err := (&Id{}).Unmarshal([]byte(`""`)); err == nil {
		t.Fatal("empty id decoded")
	}
}
