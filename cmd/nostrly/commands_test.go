package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nostrly.lol/builder"
	"nostrly.lol/client"
	"nostrly.lol/eventid"
	"nostrly.lol/filters"
	"nostrly.lol/hex"
	"nostrly.lol/kind"
	"nostrly.lol/p256k"
	"nostrly.lol/tag"
	"nostrly.lol/timestamp"
)

func TestParseTag(t *testing.T) {
	tg, err := parseTag("e=abc,wss://relay.one")
	require.NoError(t, err)
	require.Equal(t, []string{"e", "abc", "wss://relay.one"}, tg.ToStringSlice())
	tg, err = parseTag("t=")
	require.NoError(t, err)
	require.Equal(t, []string{"t", ""}, tg.ToStringSlice())
	for _, bad := range []string{"novalue", "=x"} {
		_, err = parseTag(bad)
		require.Error(t, err, bad)
	}
}

func TestPublishBuilder(t *testing.T) {
	p := &PublishCmd{
		Content:    "-",
		Kind:       7,
		Tags:       []string{"e=abc", "p=def"},
		Expiration: time.Hour,
		Protected:  true,
		Pow:        4,
	}
	b, err := p.Builder(strings.NewReader("+\n"))
	require.NoError(t, err)
	require.Equal(t, 4, b.Difficulty())
	s, err := p256k.New()
	require.NoError(t, err)
	ev, err := b.Sign(s)
	require.NoError(t, err)
	require.NoError(t, ev.Verify())
	require.Equal(t, "+", string(ev.Content))
	require.True(t, ev.Kind.Equal(kind.Reaction))
	require.True(t, ev.IsProtected())
	require.GreaterOrEqual(t, ev.Difficulty(), 4)
	exp, ok := ev.Tags.Expiration()
	require.True(t, ok)
	require.Greater(t, exp.I64(), timestamp.Now().I64())
	require.NotNil(t, ev.Tags.GetFirst(tag.New("e", "abc")))
	_, err = (&PublishCmd{Kind: 70000}).Builder(nil)
	require.Error(t, err)
}

func TestReqFilter(t *testing.T) {
	s, err := p256k.New()
	require.NoError(t, err)
	id := strings.Repeat("ab", 32)
	r := &ReqCmd{
		Kinds:   []int{1, 7},
		Authors: []string{hex.Enc(s.Pub())},
		IDs:     []string{id},
		Tags:    []string{"t=nostr,go"},
		Since:   1000,
		Limit:   5,
	}
	f, err := r.Filter()
	require.NoError(t, err)
	require.Len(t, f.Kinds.K, 2)
	require.Equal(t, 1, f.Authors.Len())
	require.Equal(t, 1, f.IDs.Len())
	require.EqualValues(t, 1000, f.Since.I64())
	require.Nil(t, f.Until)
	require.EqualValues(t, 5, *f.Limit)

	ev, err := builder.TextNote("hello").Tags(tag.New("t", "go")).Sign(s)
	require.NoError(t, err)
	r.IDs = nil
	f, err = r.Filter()
	require.NoError(t, err)
	require.True(t, filters.New(f).Match(ev))

	for _, bad := range []*ReqCmd{
		{Kinds: []int{-1}},
		{Authors: []string{"npub1nope"}},
		{IDs: []string{"abcd"}},
		{Tags: []string{"topic=nostr"}},
	} {
		_, err = bad.Filter()
		require.Error(t, err)
	}
}

func TestVerifyAll(t *testing.T) {
	s, err := p256k.New()
	require.NoError(t, err)
	good, err := builder.TextNote("good").Sign(s)
	require.NoError(t, err)
	forged := good.Clone()
	forged.Content = []byte("forged")
	var in bytes.Buffer
	in.Write(good.Marshal(nil))
	in.WriteString("\n\n")
	in.Write(forged.Marshal(nil))
	in.WriteString("\n{not json\n")
	var out bytes.Buffer
	bad, err := verifyAll(&in, &out)
	require.NoError(t, err)
	require.Equal(t, 2, bad)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "ok      "+good.IDString(), lines[0])
	require.True(t, strings.HasPrefix(lines[1], "invalid "+forged.IDString()))
	require.True(t, strings.HasPrefix(lines[2], "invalid: "))
}

func TestFormatOutput(t *testing.T) {
	id := eventid.NewWith(bytes.Repeat([]byte{1}, 32))
	out := formatOutput(&client.Output{
		ID:      id,
		Success: []string{"wss://a"},
		Failed: map[string]string{
			"wss://c": client.Timeout,
			"wss://b": "blocked: no",
		},
	})
	require.Equal(t, "id: "+id.String()+"\n"+
		"ok      wss://a\n"+
		"failed  wss://b: blocked: no\n"+
		"failed  wss://c: timeout\n", out)
}
