// Package normalize puts relay addresses into a single form so the same
// relay given two ways is recognised as one.
package normalize

import (
	"net/url"
	"strconv"
	"strings"

	"nostrly.lol/chk"
	"nostrly.lol/log"
)

const (
	WS    = "ws://"
	WSS   = "wss://"
	HTTP  = "http://"
	HTTPS = "https://"
)

func hasScheme(u string) bool {
	return strings.HasPrefix(u, HTTP) || strings.HasPrefix(u, HTTPS) ||
		strings.HasPrefix(u, WS) || strings.HasPrefix(u, WSS)
}

// addScheme prefixes a bare host. A bare address with a port other than 443
// is assumed to be a local or test relay on plain ws, anything else is wss.
// The second return is false when the address is malformed.
func addScheme(u, secure, insecure string) (string, bool) {
	if hasScheme(u) {
		return u, true
	}
	host := u
	if i := strings.IndexAny(u, "/?"); i >= 0 {
		host = u[:i]
	}
	if !strings.Contains(host, ":") {
		return secure + u, true
	}
	split := strings.Split(host, ":")
	if len(split) != 2 {
		log.D.F("more than one ':' in URL: '%s'", u)
		return "", false
	}
	port, err := strconv.ParseUint(split[1], 10, 16)
	if err != nil {
		log.D.F("invalid port in URL '%s': %s", u, err)
		return "", false
	}
	if port == 443 {
		return secure + split[0] + u[len(host):], true
	}
	return insecure + u, true
}

func clean(u string, scheme map[string]string) string {
	p, err := url.Parse(u)
	if chk.D(err) {
		return ""
	}
	if s, ok := scheme[p.Scheme]; ok {
		p.Scheme = s
	}
	p.Path = strings.TrimRight(p.Path, "/")
	p.RawPath = ""
	return p.String()
}

// URL normalizes a relay address to a websocket URL. It returns an empty
// string if the address can't be made into one.
//
// - Adds wss:// to addresses without a port, or with 443, that have no
// protocol prefix
//
// - Adds ws:// to addresses with any other port
//
// - Converts http/s to ws/s
//
// - Lower cases, and removes trailing slashes from the path
func URL[V string | []byte](v V) string {
	u := strings.ToLower(strings.TrimSpace(string(v)))
	if u == "" {
		return ""
	}
	var ok bool
	if u, ok = addScheme(u, WSS, WS); !ok {
		return ""
	}
	return clean(u, map[string]string{"https": "wss", "http": "ws"})
}

// HTTPURL normalizes the URL for such as fetching relay info.
//
// - Adds https:// to addresses without a port, or with 443, that have no
// protocol prefix
//
// - Adds http:// to addresses with any other port
//
// - Converts ws/s to http/s
func HTTPURL[V string | []byte](v V) string {
	u := strings.ToLower(strings.TrimSpace(string(v)))
	if u == "" {
		return ""
	}
	var ok bool
	if u, ok = addScheme(u, HTTPS, HTTP); !ok {
		return ""
	}
	return clean(u, map[string]string{"wss": "https", "ws": "http"})
}
