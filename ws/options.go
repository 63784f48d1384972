package ws

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"nostrly.lol/signer"
)

const (
	// DefaultSendTimeout bounds the wait for an OK after a publish.
	DefaultSendTimeout = 20 * time.Second
	// DefaultConnectTimeout bounds one dial attempt.
	DefaultConnectTimeout = 10 * time.Second
	// PingInterval is the keepalive period.
	PingInterval = 29 * time.Second
)

// Option is the type of the argument passed for that.
type Option interface {
	IsRelayOption()
}

// WithNoticeHandler takes notice messages and handles them. If not given,
// notices are logged.
type WithNoticeHandler func(notice []byte)

func (_ WithNoticeHandler) IsRelayOption() {}

// WithAuthSigner answers NIP-42 challenges automatically with the signer,
// and retries once a publish or subscription refused with auth-required.
type WithAuthSigner struct{ signer.I }

func (_ WithAuthSigner) IsRelayOption() {}

// WithBackoff sets the reconnection schedule.
type WithBackoff Backoff

func (_ WithBackoff) IsRelayOption() {}

// WithSendTimeout sets how long Publish waits for an OK.
type WithSendTimeout time.Duration

func (_ WithSendTimeout) IsRelayOption() {}

// WithConnectTimeout sets how long one dial may take.
type WithConnectTimeout time.Duration

func (_ WithConnectTimeout) IsRelayOption() {}

// WithWriteLimit caps outgoing messages per second. Zero is unlimited.
type WithWriteLimit float64

func (_ WithWriteLimit) IsRelayOption() {}

// WithRequestHeader adds headers to the upgrade request, e.g. Origin.
type WithRequestHeader http.Header

func (_ WithRequestHeader) IsRelayOption() {}

// WithAssumeValid skips signature checks of events from this relay.
type WithAssumeValid bool

func (_ WithAssumeValid) IsRelayOption() {}

// WithStatusHandler is called on every status change.
type WithStatusHandler func(url string, s Status)

func (_ WithStatusHandler) IsRelayOption() {}

// WithClock replaces the wall clock driving backoff, ping and timeouts.
type WithClock struct{ clock.Clock }

func (_ WithClock) IsRelayOption() {}

type options struct {
	noticeHandler  func([]byte)
	statusHandler  func(string, Status)
	authSigner     signer.I
	backoff        Backoff
	sendTimeout    time.Duration
	connectTimeout time.Duration
	limiter        *rate.Limiter
	requestHeader  http.Header
	assumeValid    bool
	clock          clock.Clock
}

func newOptions(opts []Option) (o options) {
	o = options{
		backoff:        DefaultBackoff,
		sendTimeout:    DefaultSendTimeout,
		connectTimeout: DefaultConnectTimeout,
		clock:          clock.New(),
	}
	for _, opt := range opts {
		switch v := opt.(type) {
		case WithNoticeHandler:
			o.noticeHandler = v
		case WithStatusHandler:
			o.statusHandler = v
		case WithAuthSigner:
			o.authSigner = v.I
		case WithBackoff:
			o.backoff = Backoff(v)
		case WithSendTimeout:
			if v > 0 {
				o.sendTimeout = time.Duration(v)
			}
		case WithConnectTimeout:
			if v > 0 {
				o.connectTimeout = time.Duration(v)
			}
		case WithWriteLimit:
			if v > 0 {
				burst := int(v)
				if burst < 1 {
					burst = 1
				}
				o.limiter = rate.NewLimiter(rate.Limit(v), burst)
			}
		case WithRequestHeader:
			o.requestHeader = http.Header(v)
		case WithAssumeValid:
			o.assumeValid = bool(v)
		case WithClock:
			if v.Clock != nil {
				o.clock = v.Clock
			}
		}
	}
	return
}
