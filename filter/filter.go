// Package filter is a codec for nostr filters (queries) and includes tools for
// matching them to events.
package filter

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
	"nostrly.lol/event"
	"nostrly.lol/hex"
	"nostrly.lol/kinds"
	"nostrly.lol/tag"
	"nostrly.lol/tags"
	"nostrly.lol/text"
	"nostrly.lol/timestamp"
)

// T is the primary query form for requesting events from a nostr relay.
//
// IDs and Authors hold raw bytes and are hex encoded on the wire. Tags holds
// the tag queries, each a tag.T whose key is the "#x" form followed by the
// accepted values.
type T struct {
	IDs     *tag.T
	Kinds   *kinds.T
	Authors *tag.T
	Tags    *tags.T
	Since   *timestamp.T
	Until   *timestamp.T
	Search  []byte
	Limit   *uint
}

// New creates a new, empty filter, which matches everything.
func New() (f *T) {
	return &T{
		IDs:     tag.NewWithCap(4),
		Kinds:   kinds.NewWithCap(4),
		Authors: tag.NewWithCap(4),
		Tags:    tags.NewWithCap(2),
	}
}

var (
	// IDs is the JSON object key for IDs.
	IDs = []byte("ids")
	// Kinds is the JSON object key for Kinds.
	Kinds = []byte("kinds")
	// Authors is the JSON object key for Authors.
	Authors = []byte("authors")
	// Since is the JSON object key for Since.
	Since = []byte("since")
	// Until is the JSON object key for Until.
	Until = []byte("until")
	// Limit is the JSON object key for Limit.
	Limit = []byte("limit")
	// Search is the JSON object key for Search.
	Search = []byte("search")
)

// AddTag adds a tag query: events must carry a tag with the single letter key
// k and one of the values.
func (f *T) AddTag(k byte, values ...string) *T {
	tg := tag.NewWithCap(len(values) + 1)
	tg.Append([]byte{'#', k})
	for _, v := range values {
		tg.Append([]byte(v))
	}
	f.Tags = f.Tags.AppendTags(tg)
	return f
}

// SetLimit sets the maximum number of stored events wanted.
func (f *T) SetLimit(l uint) *T {
	f.Limit = &l
	return f
}

func comma(dst []byte, first *bool) []byte {
	if *first {
		*first = false
		return dst
	}
	return append(dst, ',')
}

// Marshal a filter into raw JSON bytes, minified, omitting empty fields.
func (f *T) Marshal(dst []byte) (b []byte) {
	first := true
	dst = append(dst, '{')
	if f.IDs.Len() > 0 {
		dst = comma(dst, &first)
		dst = text.JSONKey(dst, IDs)
		dst = text.MarshalHexArray(dst, f.IDs.ToSliceOfBytes())
	}
	if f.Kinds.Len() > 0 {
		dst = comma(dst, &first)
		dst = text.JSONKey(dst, Kinds)
		dst = f.Kinds.Marshal(dst)
	}
	if f.Authors.Len() > 0 {
		dst = comma(dst, &first)
		dst = text.JSONKey(dst, Authors)
		dst = text.MarshalHexArray(dst, f.Authors.ToSliceOfBytes())
	}
	for _, tg := range f.Tags.F() {
		// tag queries are keyed "#x" with a single letter x
		if tg.Len() < 2 || len(tg.Key()) != 2 || tg.Key()[0] != '#' {
			continue
		}
		dst = comma(dst, &first)
		dst = text.AppendQuote(dst, tg.Key(), text.NostrEscape)
		dst = append(dst, ':')
		dst = tags.MarshalValues(dst, tg.ToSliceOfBytes()[1:])
	}
	if f.Since != nil {
		dst = comma(dst, &first)
		dst = text.JSONKey(dst, Since)
		dst = f.Since.Marshal(dst)
	}
	if f.Until != nil {
		dst = comma(dst, &first)
		dst = text.JSONKey(dst, Until)
		dst = f.Until.Marshal(dst)
	}
	if len(f.Search) > 0 {
		dst = comma(dst, &first)
		dst = text.JSONKey(dst, Search)
		dst = text.AppendQuote(dst, f.Search, text.NostrEscape)
	}
	if f.Limit != nil {
		dst = comma(dst, &first)
		dst = text.JSONKey(dst, Limit)
		dst = strconv.AppendUint(dst, uint64(*f.Limit), 10)
	}
	b = append(dst, '}')
	return
}

// Serialize a filter.T into raw minified JSON bytes.
func (f *T) Serialize() (b []byte) { return f.Marshal(nil) }

// MarshalJSON implements json.Marshaler.
func (f *T) MarshalJSON() ([]byte, error) { return f.Marshal(nil), nil }

// UnmarshalJSON implements json.Unmarshaler.
func (f *T) UnmarshalJSON(b []byte) error { return f.Unmarshal(b) }

func unmarshalHexList(b []byte) (t *tag.T, err error) {
	var ss []string
	if err = json.Unmarshal(b, &ss); chk.D(err) {
		return
	}
	t = tag.NewWithCap(len(ss))
	for _, s := range ss {
		var v []byte
		if v, err = hex.Dec(s); err != nil {
			err = errorf.D("filter value '%s' is not hex: %w", s, err)
			return
		}
		t.Append(v)
	}
	return
}

// Unmarshal a filter from JSON. Unknown keys are an error, except the "#x"
// tag queries.
func (f *T) Unmarshal(b []byte) (err error) {
	var m map[string]json.RawMessage
	if err = json.Unmarshal(b, &m); chk.D(err) {
		return
	}
	*f = *New()
	// sort so tag queries come out in a stable order
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		switch {
		case k == string(IDs):
			if f.IDs, err = unmarshalHexList(v); err != nil {
				return
			}
		case k == string(Authors):
			if f.Authors, err = unmarshalHexList(v); err != nil {
				return
			}
		case k == string(Kinds):
			if err = f.Kinds.Unmarshal(v); err != nil {
				return
			}
		case k == string(Since), k == string(Until):
			var i int64
			if err = json.Unmarshal(v, &i); chk.D(err) {
				return
			}
			if k == string(Since) {
				f.Since = timestamp.FromUnix(i)
			} else {
				f.Until = timestamp.FromUnix(i)
			}
		case k == string(Limit):
			var l uint
			if err = json.Unmarshal(v, &l); chk.D(err) {
				return
			}
			f.Limit = &l
		case k == string(Search):
			var s string
			if err = json.Unmarshal(v, &s); chk.D(err) {
				return
			}
			f.Search = []byte(s)
		case len(k) == 2 && strings.HasPrefix(k, "#"):
			var ss []string
			if err = json.Unmarshal(v, &ss); chk.D(err) {
				return
			}
			f.AddTag(k[1], ss...)
		default:
			return errorf.D("unknown filter key '%s'", k)
		}
	}
	return
}

// Matches checks a filter against an event and determines if the event
// matches the filter. Search and Limit are for the relay to apply.
func (f *T) Matches(ev *event.T) bool {
	if ev == nil {
		return false
	}
	if f.IDs.Len() > 0 && !f.IDs.Contains(ev.ID) {
		return false
	}
	if f.Kinds.Len() > 0 && !f.Kinds.Contains(ev.Kind) {
		return false
	}
	if f.Authors.Len() > 0 && !f.Authors.Contains(ev.Pubkey) {
		return false
	}
	for _, tg := range f.Tags.F() {
		if tg.Len() < 2 || len(tg.Key()) != 2 {
			continue
		}
		if !ev.Tags.ContainsAny(tg.Key()[1:], tg.ToSliceOfBytes()[1:]) {
			return false
		}
	}
	if f.Since != nil && ev.CreatedAt.I64() < f.Since.I64() {
		return false
	}
	if f.Until != nil && ev.CreatedAt.I64() > f.Until.I64() {
		return false
	}
	return true
}

// Clone makes a deep copy of the filter.
func (f *T) Clone() (c *T) {
	c = &T{
		IDs:     f.IDs.Clone(),
		Kinds:   f.Kinds.Clone(),
		Authors: f.Authors.Clone(),
		Tags:    f.Tags.Clone(),
		Search:  append([]byte(nil), f.Search...),
	}
	if f.Since != nil {
		c.Since = f.Since.Clone()
	}
	if f.Until != nil {
		c.Until = f.Until.Clone()
	}
	if f.Limit != nil {
		l := *f.Limit
		c.Limit = &l
	}
	return
}

// Equal checks a filter against another filter to see if they are the same
// filter.
func (f *T) Equal(b *T) bool { return bytes.Equal(f.Marshal(nil), b.Marshal(nil)) }
