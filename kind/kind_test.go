package kind

import (
	"strconv"
	"testing"

	"lukechampine.com/frand"
)

func TestMarshal(t *testing.T) {
	for i := 0; i < 10000; i++ {
		n := uint16(frand.Intn(65536))
		k := New(n)
		b := k.Marshal(nil)
		if string(b) != strconv.Itoa(int(n)) {
			t.Fatalf("kind %d marshalled as %s", n, b)
		}
	}
}

func TestRanges(t *testing.T) {
	if !New(22242).IsEphemeral() || TextNote.IsEphemeral() {
		t.Fatal("ephemeral range wrong")
	}
	if !ProfileMetadata.IsReplaceable() || !New(10002).IsReplaceable() || TextNote.IsReplaceable() {
		t.Fatal("replaceable range wrong")
	}
	if !LongFormContent.IsParameterizedReplaceable() {
		t.Fatal("parameterized replaceable range wrong")
	}
	if TextNote.Name() != "TextNote" {
		t.Fatalf("unexpected name %s", TextNote.Name())
	}
	var k *T
	if k.ToU16() != 0 || k.Name() != "" {
		t.Fatal("nil kind should be zero")
	}
}
