package relayinfo

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"nostrly.lol/chk"
	"nostrly.lol/context"
	"nostrly.lol/errorf"
	"nostrly.lol/normalize"
)

// DefaultTimeout bounds a Fetch whose context has no deadline.
const DefaultTimeout = 7 * time.Second

// MaxDocumentSize is the largest information document that will be read.
const MaxDocumentSize = 1 << 20

// Fetch fetches the NIP-11 Info. The relay address may be given in its
// websocket form, it is converted to http/s.
func Fetch(c context.T, u string) (info *T, err error) {
	var cancel context.F
	c, cancel = context.TimeoutIfNone(c, DefaultTimeout)
	defer cancel()
	hu := normalize.HTTPURL(u)
	if hu == "" {
		err = errorf.D("invalid relay address '%s'", u)
		return
	}
	var req *http.Request
	if req, err = http.NewRequestWithContext(c, http.MethodGet, hu, nil); chk.E(err) {
		return
	}
	// add the NIP-11 header
	req.Header.Add("Accept", "application/nostr+json")
	var resp *http.Response
	if resp, err = http.DefaultClient.Do(req); chk.D(err) {
		err = errorf.D("request failed: %w", err)
		return
	}
	defer func() { chk.D(resp.Body.Close()) }()
	if resp.StatusCode != http.StatusOK {
		err = errorf.D("relay info request to %s returned %s", hu, resp.Status)
		return
	}
	var b []byte
	if b, err = io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize)); chk.D(err) {
		return
	}
	info = &T{}
	if err = json.Unmarshal(b, info); chk.D(err) {
		info = nil
		return
	}
	return
}
