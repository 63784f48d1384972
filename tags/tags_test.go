package tags

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nostrly.lol/tag"
)

func TestMarshal(t *testing.T) {
	tt := New(tag.New("e", "aa", "", tag.MarkerRoot), tag.New("t", "nostr"), tag.New("-"))
	require.Equal(t, `[["e","aa","","root"],["t","nostr"],["-"]]`, string(tt.Marshal(nil)))
	var empty *T
	require.Equal(t, `[]`, string(empty.Marshal(nil)))
	require.Equal(t, `[]`, string(New().Marshal(nil)))
}

func TestExpiration(t *testing.T) {
	exp, ok := New(tag.New("expiration", "100")).Expiration()
	require.True(t, ok)
	require.EqualValues(t, 100, exp.I64())

	_, ok = New(tag.New("t", "x")).Expiration()
	require.False(t, ok)

	_, ok = New(tag.New("expiration", "tomorrow")).Expiration()
	require.False(t, ok, "unparsable value must be ignored")

	_, ok = New(tag.New("expiration")).Expiration()
	require.False(t, ok, "expiration without a value must be ignored")

	exp, ok = New(tag.New("expiration", "5"), tag.New("expiration", "9")).Expiration()
	require.True(t, ok)
	require.EqualValues(t, 5, exp.I64())
}

func TestProtected(t *testing.T) {
	require.True(t, New(tag.New("t", "a"), tag.New("-")).ContainsProtectedMarker())
	require.False(t, New(tag.New("t", "-")).ContainsProtectedMarker())
	require.False(t, New().ContainsProtectedMarker())
}

func TestLookups(t *testing.T) {
	tt := FromStringSlices([]string{"p", "abc"}, []string{"p", "def"}, []string{"e", "123"})
	require.Equal(t, "abc", tt.GetFirst(tag.New("p")).S(1))
	require.Equal(t, "def", tt.GetLast(tag.New("p")).S(1))
	require.Equal(t, 2, tt.GetAll(tag.New("p")).Len())
	require.True(t, tt.ContainsAny([]byte("e"), [][]byte{[]byte("9"), []byte("123")}))
	require.False(t, tt.ContainsAny([]byte("e"), [][]byte{[]byte("abc")}))
	require.Equal(t, [][]string{{"p", "abc"}, {"p", "def"}, {"e", "123"}}, tt.ToStringSlice())
	c := tt.Clone()
	require.True(t, c.Equal(tt))
	c.AppendTags(tag.New("t", "x"))
	require.False(t, c.Equal(tt))
}
