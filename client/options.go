package client

import (
	"time"

	"nostrly.lol/ws"
)

const (
	// DefaultSendTimeout bounds the wait for every relay's OK.
	DefaultSendTimeout = 20 * time.Second
	// DefaultDedupCacheSize is the number of event ids remembered by a
	// merged subscription.
	DefaultDedupCacheSize = 4096
)

// Options are the settings of a Client.
type Options struct {
	SendTimeout       time.Duration
	ConnectTimeout    time.Duration
	WaitForConnection bool
	SkipDisconnected  bool
	// MaxRelays is the relay limit, zero is unlimited.
	MaxRelays      int
	DedupCacheSize int
	// Difficulty is the proof of work applied by SendEventBuilder to events
	// that did not ask for any.
	Difficulty int
	Backoff    ws.Backoff
	// WriteRate caps messages per second to each relay, zero is unlimited.
	WriteRate float64
	// AutoAuth answers NIP-42 challenges with the client signer.
	AutoAuth        bool
	eventMiddleware []func(IncomingEvent)
	relayOptions    []ws.Option
}

func defaultOptions() Options {
	return Options{
		SendTimeout:    DefaultSendTimeout,
		ConnectTimeout: ws.DefaultConnectTimeout,
		DedupCacheSize: DefaultDedupCacheSize,
		Backoff:        ws.DefaultBackoff,
	}
}

// Option changes the Options of a Client.
type Option interface {
	ApplyOption(*Options)
}

// WithSendTimeout sets the bound on SendEvent.
type WithSendTimeout time.Duration

func (o WithSendTimeout) ApplyOption(opts *Options) {
	if o > 0 {
		opts.SendTimeout = time.Duration(o)
	}
}

// WithConnectTimeout bounds each dial.
type WithConnectTimeout time.Duration

func (o WithConnectTimeout) ApplyOption(opts *Options) {
	if o > 0 {
		opts.ConnectTimeout = time.Duration(o)
	}
}

// WaitForConnection makes Connect block until every relay made an attempt.
type WaitForConnection bool

func (o WaitForConnection) ApplyOption(opts *Options) { opts.WaitForConnection = bool(o) }

// SkipDisconnected leaves relays that are not connected out of SendEvent
// results instead of reporting them failed.
type SkipDisconnected bool

func (o SkipDisconnected) ApplyOption(opts *Options) { opts.SkipDisconnected = bool(o) }

// WithMaxRelays limits the number of relays.
type WithMaxRelays int

func (o WithMaxRelays) ApplyOption(opts *Options) { opts.MaxRelays = int(o) }

// WithDedupCacheSize sets how many event ids a merged subscription remembers.
type WithDedupCacheSize int

func (o WithDedupCacheSize) ApplyOption(opts *Options) {
	if o > 0 {
		opts.DedupCacheSize = int(o)
	}
}

// WithDifficulty sets the default proof of work.
type WithDifficulty int

func (o WithDifficulty) ApplyOption(opts *Options) { opts.Difficulty = int(o) }

// WithBackoff sets the reconnection schedule of every relay.
type WithBackoff ws.Backoff

func (o WithBackoff) ApplyOption(opts *Options) { opts.Backoff = ws.Backoff(o) }

// WithWriteRate caps messages per second to each relay.
type WithWriteRate float64

func (o WithWriteRate) ApplyOption(opts *Options) { opts.WriteRate = float64(o) }

// WithAutoAuth answers NIP-42 challenges with the client signer.
type WithAutoAuth bool

func (o WithAutoAuth) ApplyOption(opts *Options) { opts.AutoAuth = bool(o) }

// WithEventMiddleware is a function that will be called with all events
// received, before de-duplication. More than one can be given.
type WithEventMiddleware func(IncomingEvent)

func (o WithEventMiddleware) ApplyOption(opts *Options) {
	opts.eventMiddleware = append(opts.eventMiddleware, o)
}

// WithRelayOptions passes options through to every relay connection.
type WithRelayOptions []ws.Option

func (o WithRelayOptions) ApplyOption(opts *Options) {
	opts.relayOptions = append(opts.relayOptions, o...)
}

var (
	_ Option = WithSendTimeout(0)
	_ Option = WithConnectTimeout(0)
	_ Option = WaitForConnection(false)
	_ Option = SkipDisconnected(false)
	_ Option = WithMaxRelays(0)
	_ Option = WithDedupCacheSize(0)
	_ Option = WithDifficulty(0)
	_ Option = WithBackoff{}
	_ Option = WithWriteRate(0)
	_ Option = WithAutoAuth(false)
	_ Option = WithEventMiddleware(nil)
	_ Option = WithRelayOptions(nil)
)
