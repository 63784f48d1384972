// Package client fans a Nostr client out over a set of relays: it publishes
// to all of them and reports per relay, and merges their subscriptions into
// one de-duplicated stream.
package client

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"nostrly.lol/builder"
	"nostrly.lol/context"
	"nostrly.lol/errorf"
	"nostrly.lol/event"
	"nostrly.lol/eventid"
	"nostrly.lol/filter"
	"nostrly.lol/filters"
	"nostrly.lol/log"
	"nostrly.lol/normalize"
	"nostrly.lol/signer"
	"nostrly.lol/ws"
)

var (
	ErrNoSigner      = errors.New("no signer")
	ErrShutdown      = errors.New("client is shut down")
	ErrTooManyRelays = errors.New("too many relays")
	ErrRelayNotFound = errors.New("relay not found")
	ErrInvalidURL    = errors.New("invalid relay URL")
	ErrNoRelays      = errors.New("no relays")
	ErrPublishFailed = errors.New("event was not accepted by any relay")

	ErrDuplicateSubscription = errors.New("subscription id in use")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
)

// Failure reasons in Output.Failed that do not come from a relay.
const (
	NotConnected     = "not connected"
	Timeout          = "timeout"
	ConnectionClosed = "connection closed"
)

// Client is a signer plus a set of relays.
type Client struct {
	ctx      context.T
	cancel   context.F
	signer   signer.I
	opts     Options
	mx       sync.RWMutex
	relays   map[string]*ws.Client
	subs     map[string]*poolSubscription
	shutdown atomic.Bool
}

// IncomingEvent is an event and the relay it came from.
type IncomingEvent struct {
	Event *event.T
	Relay string
}

func (ie IncomingEvent) String() string {
	return fmt.Sprintf("[%s] >> %s", ie.Relay, ie.Event.Serialize())
}

// Output is the per relay result of sending one event.
type Output struct {
	ID *eventid.T
	// Success is the sorted URLs of the relays that accepted the event.
	Success []string
	// Failed maps relay URL to the reason it did not.
	Failed map[string]string
}

// New returns a Client signing with s, which may be nil for reading only.
func New(s signer.I, opts ...Option) (c *Client) {
	ctx, cancel := context.Cancel(context.Bg())
	c = &Client{
		ctx:    ctx,
		cancel: cancel,
		signer: s,
		opts:   defaultOptions(),
		relays: make(map[string]*ws.Client),
		subs:   make(map[string]*poolSubscription),
	}
	for _, opt := range opts {
		opt.ApplyOption(&c.opts)
	}
	return
}

// Signer is the signer given to New.
func (c *Client) Signer() signer.I { return c.signer }

func (c *Client) relayOptions() (opts []ws.Option) {
	opts = []ws.Option{
		ws.WithSendTimeout(c.opts.SendTimeout),
		ws.WithConnectTimeout(c.opts.ConnectTimeout),
		ws.WithBackoff(c.opts.Backoff),
	}
	if c.opts.WriteRate > 0 {
		opts = append(opts, ws.WithWriteLimit(c.opts.WriteRate))
	}
	if c.opts.AutoAuth && c.signer != nil {
		opts = append(opts, ws.WithAuthSigner{I: c.signer})
	}
	return append(opts, c.opts.relayOptions...)
}

// AddRelay adds a relay without connecting to it. It returns false if the
// relay was already there. Live subscriptions are sent to the new relay once
// it connects.
func (c *Client) AddRelay(url string) (added bool, err error) {
	if c.shutdown.Load() {
		return false, ErrShutdown
	}
	u := normalize.URL(url)
	if u == "" {
		return false, fmt.Errorf("%w: '%s'", ErrInvalidURL, url)
	}
	c.mx.Lock()
	if _, ok := c.relays[u]; ok {
		c.mx.Unlock()
		return false, nil
	}
	if c.opts.MaxRelays > 0 && len(c.relays) >= c.opts.MaxRelays {
		c.mx.Unlock()
		return false, fmt.Errorf("%w: limit %d", ErrTooManyRelays, c.opts.MaxRelays)
	}
	r := ws.NewClient(c.ctx, u, c.relayOptions()...)
	c.relays[u] = r
	live := slices.Collect(maps.Values(c.subs))
	c.mx.Unlock()
	log.D.F("added relay %s", u)
	for _, ps := range live {
		c.stream(ps, r, true)
	}
	return true, nil
}

// RemoveRelay disconnects a relay and forgets it.
func (c *Client) RemoveRelay(url string) (err error) {
	u := normalize.URL(url)
	c.mx.Lock()
	r, ok := c.relays[u]
	delete(c.relays, u)
	c.mx.Unlock()
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrRelayNotFound, url)
	}
	if err = r.Close(); errors.Is(err, ws.ErrNotConnected) {
		err = nil
	}
	return
}

func (c *Client) snapshot() (relays map[string]*ws.Client) {
	c.mx.RLock()
	relays = maps.Clone(c.relays)
	c.mx.RUnlock()
	return
}

// Relays returns the sorted relay URLs.
func (c *Client) Relays() []string {
	return slices.Sorted(maps.Keys(c.snapshot()))
}

// Relay returns the connection of one relay.
func (c *Client) Relay(url string) (r *ws.Client, err error) {
	c.mx.RLock()
	r, ok := c.relays[normalize.URL(url)]
	c.mx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrRelayNotFound, url)
	}
	return
}

// Status returns the connection status of one relay.
func (c *Client) Status(url string) (s ws.Status, err error) {
	var r *ws.Client
	if r, err = c.Relay(url); err != nil {
		return
	}
	return r.Status(), nil
}

// Connect dials every relay at once. Relays that fail keep retrying in the
// background; only a finished ctx makes Connect fail. Without
// WaitForConnection it returns straight away.
func (c *Client) Connect(ctx context.T) (err error) {
	if c.shutdown.Load() {
		return ErrShutdown
	}
	relays := c.snapshot()
	connect := func(ctx context.T) error {
		var g errgroup.Group
		for _, r := range relays {
			g.Go(func() error {
				if err := r.Connect(ctx); err != nil {
					log.D.F("connecting to %s: %v", r.URL(), err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		return ctx.Err()
	}
	if c.opts.WaitForConnection {
		return connect(ctx)
	}
	go connect(c.ctx)
	return
}

// SendEvent publishes a signed event to every relay and waits, at most
// SendTimeout, for their answers. The error is nil if any relay accepted it;
// otherwise the Output still tells why each one did not.
func (c *Client) SendEvent(ctx context.T, ev *event.T) (out *Output, err error) {
	if err = ev.Verify(); err != nil {
		return
	}
	if c.shutdown.Load() {
		return nil, ErrShutdown
	}
	relays := c.snapshot()
	out = &Output{ID: eventid.NewWith(ev.ID), Failed: make(map[string]string)}
	if len(relays) == 0 {
		return out, ErrNoRelays
	}
	var mx sync.Mutex
	var wg sync.WaitGroup
	for url, r := range relays {
		if !r.IsConnected() {
			if !c.opts.SkipDisconnected {
				mx.Lock()
				out.Failed[url] = NotConnected
				mx.Unlock()
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc, cancel := context.Timeout(ctx, c.opts.SendTimeout)
			defer cancel()
			err := r.Publish(sc, ev)
			mx.Lock()
			defer mx.Unlock()
			if err != nil {
				out.Failed[url] = FailureReason(err)
				return
			}
			out.Success = append(out.Success, url)
		}()
	}
	wg.Wait()
	sort.Strings(out.Success)
	switch {
	case len(out.Success) > 0:
	case len(out.Failed) == 0:
		err = ErrNoRelays
	default:
		err = ErrPublishFailed
	}
	return
}

// FailureReason is the Output.Failed text for a publish error: the relay's
// own message when it refused the event.
func FailureReason(err error) string {
	var re *ws.RejectedError
	switch {
	case errors.As(err, &re):
		if re.Reason == "" {
			return ws.ErrRejected.Error()
		}
		return re.Reason
	case errors.Is(err, ws.ErrTimeout), errors.Is(err, context.Exceeded):
		return Timeout
	case errors.Is(err, ws.ErrNotConnected):
		return NotConnected
	case errors.Is(err, ws.ErrClosed), errors.Is(err, context.Canceled):
		return ConnectionClosed
	default:
		return err.Error()
	}
}

// SendEventBuilder signs the built event with the client signer and sends
// it. b is not modified.
func (c *Client) SendEventBuilder(ctx context.T, b *builder.T) (out *Output, err error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	if b.Difficulty() == 0 && c.opts.Difficulty > 0 {
		b = b.Clone().POW(c.opts.Difficulty)
	}
	var ev *event.T
	if ev, err = b.Sign(c.signer); err != nil {
		return
	}
	return c.SendEvent(ctx, ev)
}

// FetchEvents collects the stored events matching the filters from every
// relay, newest first. Without a deadline on ctx it waits at most
// SendTimeout.
func (c *Client) FetchEvents(ctx context.T, ff ...*filter.T) (evs []*event.T, err error) {
	if c.shutdown.Load() {
		return nil, ErrShutdown
	}
	if len(c.Relays()) == 0 {
		return nil, ErrNoRelays
	}
	ctx, cancel := context.TimeoutIfNone(ctx, c.opts.SendTimeout)
	defer cancel()
	for ie := range c.SubscribeEose(ctx, filters.New(ff...)) {
		evs = append(evs, ie.Event)
	}
	sort.Sort(event.Descending(evs))
	return
}

// RemoveAllRelays disconnects and forgets every relay. The client stays
// usable.
func (c *Client) RemoveAllRelays() (err error) {
	c.mx.Lock()
	relays := c.relays
	c.relays = make(map[string]*ws.Client)
	c.mx.Unlock()
	for url, r := range relays {
		if e := r.Close(); e != nil && !errors.Is(e, ws.ErrNotConnected) {
			err = multierr.Append(err, errorf.D("closing %s: %w", url, e))
		}
	}
	return
}

// Shutdown closes every relay and refuses further use of the client.
func (c *Client) Shutdown() (err error) {
	if !c.shutdown.CompareAndSwap(false, true) {
		return
	}
	err = c.RemoveAllRelays()
	c.cancel()
	return
}
