package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"nostrly.lol/bech32encoding"
	"nostrly.lol/builder"
	"nostrly.lol/chk"
	"nostrly.lol/client"
	"nostrly.lol/config"
	"nostrly.lol/context"
	"nostrly.lol/event"
	"nostrly.lol/filter"
	"nostrly.lol/filters"
	"nostrly.lol/hex"
	"nostrly.lol/keys"
	"nostrly.lol/kind"
	"nostrly.lol/p256k"
	"nostrly.lol/relayinfo"
	"nostrly.lol/tag"
	"nostrly.lol/timestamp"
)

type GenerateCmd struct{}

// Run prints a fresh key pair in hex and bech32.
func (g *GenerateCmd) Run(_ context.T, _ *config.C) (err error) {
	var s *p256k.Signer
	if s, err = p256k.New(); chk.E(err) {
		return
	}
	var nsec, npub []byte
	if nsec, err = bech32encoding.BinToNsec(s.Sec()); chk.E(err) {
		return
	}
	if npub, err = bech32encoding.BinToNpub(s.Pub()); chk.E(err) {
		return
	}
	fmt.Printf("secret: %s\nnsec:   %s\npublic: %s\nnpub:   %s\n",
		hex.Enc(s.Sec()), nsec, hex.Enc(s.Pub()), npub)
	s.Zero()
	return
}

type PublishCmd struct {
	Content    string        `arg:"positional" help:"content of the event, read from stdin if -"`
	Kind       int           `arg:"-k,--kind" default:"1" help:"kind of the event"`
	Tags       []string      `arg:"-t,--tag,separate" help:"tag as key=value[,value...], may be repeated"`
	Expiration time.Duration `arg:"--expiration" help:"add a NIP-40 expiration this far in the future"`
	Protected  bool          `arg:"--protected" help:"add the NIP-70 protected marker"`
	Pow        int           `arg:"--pow" help:"mine the id to this many leading zero bits, overrides DIFFICULTY"`
	Relays     []string      `arg:"-r,--relay,separate" help:"relay to publish to, may be repeated, overrides RELAYS"`
}

// Builder turns the command line into an event builder.
func (p *PublishCmd) Builder(stdin io.Reader) (b *builder.T, err error) {
	content := p.Content
	if content == "-" {
		var in []byte
		if in, err = io.ReadAll(stdin); chk.E(err) {
			return
		}
		content = strings.TrimRight(string(in), "\n")
	}
	if p.Kind < 0 || p.Kind > 65535 {
		return nil, fmt.Errorf("kind %d out of range", p.Kind)
	}
	b = builder.New(kind.New(p.Kind), content)
	for _, s := range p.Tags {
		var t *tag.T
		if t, err = parseTag(s); err != nil {
			return
		}
		b.Tags(t)
	}
	if p.Expiration > 0 {
		b.Expiration(timestamp.FromTime(time.Now().Add(p.Expiration)))
	}
	if p.Protected {
		b.Protected()
	}
	if p.Pow > 0 {
		b.POW(p.Pow)
	}
	return
}

// Run signs the event and prints the result of sending it to each relay.
func (p *PublishCmd) Run(c context.T, cfg *config.C) (err error) {
	var b *builder.T
	if b, err = p.Builder(os.Stdin); err != nil {
		return
	}
	var cl *client.Client
	if cl, err = connect(c, cfg, p.Relays); err != nil {
		return
	}
	defer func() { chk.E(cl.Shutdown()) }()
	out, err := cl.SendEventBuilder(c, b)
	if out != nil {
		fmt.Print(formatOutput(out))
	}
	return
}

func formatOutput(out *client.Output) string {
	var sb strings.Builder
	if out.ID != nil {
		fmt.Fprintf(&sb, "id: %s\n", out.ID.String())
	}
	for _, u := range out.Success {
		fmt.Fprintf(&sb, "ok      %s\n", u)
	}
	failed := make([]string, 0, len(out.Failed))
	for u := range out.Failed {
		failed = append(failed, u)
	}
	slices.Sort(failed)
	for _, u := range failed {
		fmt.Fprintf(&sb, "failed  %s: %s\n", u, out.Failed[u])
	}
	return sb.String()
}

// parseTag reads key=value[,value...] into a tag.
func parseTag(s string) (t *tag.T, err error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return nil, fmt.Errorf("tag '%s' is not key=value", s)
	}
	return tag.New(append([]string{k}, strings.Split(v, ",")...)...), nil
}

type ReqCmd struct {
	Kinds   []int    `arg:"-k,--kind,separate" help:"kind to match, may be repeated"`
	Authors []string `arg:"-a,--author,separate" help:"author public key in hex or npub, may be repeated"`
	IDs     []string `arg:"-i,--id,separate" help:"event id in hex, may be repeated"`
	Tags    []string `arg:"-t,--tag,separate" help:"tag query as letter=value[,value...], may be repeated"`
	Since   int64    `arg:"--since" help:"unix time of the oldest event wanted"`
	Until   int64    `arg:"--until" help:"unix time of the newest event wanted"`
	Limit   uint     `arg:"-l,--limit" help:"number of stored events wanted"`
	Eose    bool     `arg:"--eose" help:"stop when every relay has sent its stored events"`
	Sort    bool     `arg:"--sort" help:"collect the stored events and print them newest first"`
	Relays  []string `arg:"-r,--relay,separate" help:"relay to query, may be repeated, overrides RELAYS"`
}

// Filter builds the query of the command line.
func (r *ReqCmd) Filter() (f *filter.T, err error) {
	f = filter.New()
	for _, k := range r.Kinds {
		if k < 0 || k > 65535 {
			return nil, fmt.Errorf("kind %d out of range", k)
		}
		f.Kinds.K = append(f.Kinds.K, kind.New(k))
	}
	for _, a := range r.Authors {
		var pub []byte
		if pub, err = keys.ParsePublic(a); err != nil {
			return
		}
		f.Authors.Append(pub)
	}
	for _, id := range r.IDs {
		var b []byte
		if b, err = hex.DecSized(id, 32); err != nil {
			return nil, fmt.Errorf("invalid event id '%s': %w", id, err)
		}
		f.IDs.Append(b)
	}
	for _, s := range r.Tags {
		k, v, ok := strings.Cut(s, "=")
		if !ok || len(k) != 1 {
			return nil, fmt.Errorf("tag query '%s' is not letter=value", s)
		}
		f.AddTag(k[0], strings.Split(v, ",")...)
	}
	if r.Since > 0 {
		f.Since = timestamp.FromUnix(r.Since)
	}
	if r.Until > 0 {
		f.Until = timestamp.FromUnix(r.Until)
	}
	if r.Limit > 0 {
		f.SetLimit(r.Limit)
	}
	return
}

// Run prints the events as JSON, one per line.
func (r *ReqCmd) Run(c context.T, cfg *config.C) (err error) {
	var f *filter.T
	if f, err = r.Filter(); err != nil {
		return
	}
	var cl *client.Client
	if cl, err = connect(c, cfg, r.Relays); err != nil {
		return
	}
	defer func() { chk.E(cl.Shutdown()) }()
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	if r.Sort {
		var evs []*event.T
		if evs, err = cl.FetchEvents(c, f); err != nil {
			return
		}
		for _, ev := range evs {
			_, _ = w.Write(append(ev.Marshal(nil), '\n'))
		}
		return
	}
	ch := cl.Subscribe(c, filters.New(f))
	if r.Eose {
		ch = cl.SubscribeEose(c, filters.New(f))
	}
	for ie := range ch {
		_, _ = w.Write(append(ie.Event.Marshal(nil), '\n'))
		if !r.Eose {
			chk.E(w.Flush())
		}
	}
	return
}

type VerifyCmd struct{}

// Run checks every event on stdin, one JSON object per line.
func (v *VerifyCmd) Run(_ context.T, _ *config.C) (err error) {
	var bad int
	if bad, err = verifyAll(os.Stdin, os.Stdout); err != nil {
		return
	}
	if bad > 0 {
		return fmt.Errorf("%d invalid events", bad)
	}
	return
}

func verifyAll(r io.Reader, w io.Writer) (bad int, err error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		ev := event.New()
		if err = ev.Unmarshal([]byte(line)); err != nil {
			bad++
			_, _ = fmt.Fprintf(w, "invalid: %s\n", err)
			err = nil
			continue
		}
		if err = ev.Verify(); err != nil {
			bad++
			_, _ = fmt.Fprintf(w, "invalid %s: %s\n", ev.IDString(), err)
			err = nil
			continue
		}
		_, _ = fmt.Fprintf(w, "ok      %s\n", ev.IDString())
	}
	err = s.Err()
	return
}

type InfoCmd struct {
	Relay string `arg:"positional,required" help:"relay address"`
}

// Run prints the information document as indented JSON.
func (i *InfoCmd) Run(c context.T, _ *config.C) (err error) {
	var info *relayinfo.T
	if info, err = relayinfo.Fetch(c, i.Relay); err != nil {
		return
	}
	var b []byte
	if b, err = json.MarshalIndent(info, "", "  "); chk.E(err) {
		return
	}
	_, err = fmt.Printf("%s\n", b)
	return
}
