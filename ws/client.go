// Package ws is the client side of a single relay connection: dialing and
// reconnecting, publishing events and waiting for OK, and subscriptions.
package ws

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"nostrly.lol/auth"
	"nostrly.lol/chk"
	"nostrly.lol/codec"
	"nostrly.lol/context"
	"nostrly.lol/envelopes"
	"nostrly.lol/envelopes/authenvelope"
	"nostrly.lol/envelopes/closedenvelope"
	"nostrly.lol/envelopes/eoseenvelope"
	"nostrly.lol/envelopes/eventenvelope"
	"nostrly.lol/envelopes/noticeenvelope"
	"nostrly.lol/envelopes/okenvelope"
	"nostrly.lol/errorf"
	"nostrly.lol/event"
	"nostrly.lol/filter"
	"nostrly.lol/filters"
	"nostrly.lol/hex"
	"nostrly.lol/log"
	"nostrly.lol/normalize"
	"nostrly.lol/reason"
	"nostrly.lol/signer"
	"nostrly.lol/subscription"
)

var subscriptionIDCounter atomic.Int32

// Client is a connection to one relay. It keeps itself connected once
// Connect has been called, until Close.
type Client struct {
	// Ctx is canceled by Close.
	Ctx    context.T
	cancel context.F
	url    string
	o      options
	status atomic.Int32
	closed atomic.Bool

	mx           sync.Mutex
	conn         *Connection
	connCancel   context.F
	connLost     chan struct{}
	reconnecting bool
	// generation counts connections, so a REQ goes out once on each.
	generation atomic.Int64
	// challenge is the last NIP-42 challenge on the current connection.
	challenge []byte

	Subscriptions *xsync.MapOf[string, *Subscription]
	okCallbacks   *xsync.MapOf[string, okWaiters]
	writeQueue    chan writeRequest
}

type writeRequest struct {
	msg    []byte
	answer chan error
}

type okResult struct {
	ok     bool
	reason string
	err    error
}

// okWaiters are the publishes of one event id waiting for its OK. A stored
// slice is never modified, Compute swaps in a new one.
type okWaiters []chan okResult

func (w okWaiters) deliver(res okResult) {
	for _, ch := range w {
		select {
		case ch <- res:
		default:
		}
	}
}

func (r *Client) waitOK(key string) (ch chan okResult) {
	ch = make(chan okResult, 1)
	r.okCallbacks.Compute(key, func(old okWaiters, _ bool) (okWaiters, bool) {
		return append(slices.Clip(old), ch), false
	})
	return
}

func (r *Client) doneOK(key string, ch chan okResult) {
	r.okCallbacks.Compute(key, func(old okWaiters, _ bool) (okWaiters, bool) {
		rest := slices.DeleteFunc(slices.Clone(old), func(c chan okResult) bool { return c == ch })
		return rest, len(rest) == 0
	})
}

// NewClient returns a relay client for url. It does not connect.
func NewClient(c context.T, url string, opts ...Option) (r *Client) {
	ctx, cancel := context.Cancel(c)
	r = &Client{
		Ctx:           ctx,
		cancel:        cancel,
		url:           normalize.URL(url),
		o:             newOptions(opts),
		Subscriptions: xsync.NewMapOf[string, *Subscription](),
		okCallbacks:   xsync.NewMapOf[string, okWaiters](),
		writeQueue:    make(chan writeRequest),
	}
	return
}

// RelayConnect returns a client connected to url.
func RelayConnect(c context.T, url string, opts ...Option) (*Client, error) {
	r := NewClient(c, url, opts...)
	err := r.Connect(c)
	return r, err
}

func (r *Client) URL() string { return r.url }

func (r *Client) String() string { return r.url }

func (r *Client) Status() Status { return Status(r.status.Load()) }

func (r *Client) IsConnected() bool { return r.Status() == Connected }

// Challenge returns the last NIP-42 challenge received, if any.
func (r *Client) Challenge() (ch []byte) {
	r.mx.Lock()
	ch = r.challenge
	r.mx.Unlock()
	return
}

func (r *Client) setStatus(s Status) {
	if r.closed.Load() && s != Disconnected {
		return
	}
	if Status(r.status.Swap(int32(s))) == s {
		return
	}
	log.D.F("{%s} %s", r.url, s)
	if r.o.statusHandler != nil {
		r.o.statusHandler(r.url, s)
	}
}

// Connect dials the relay. A transient failure is returned and a
// background loop keeps retrying per the Backoff; a handshake rejection
// leaves the client Failed.
func (r *Client) Connect(c context.T) (err error) {
	if r.closed.Load() {
		return ErrClosed
	}
	if r.url == "" {
		return errorf.D("%w: invalid relay URL", ErrConnectionFailure)
	}
	if r.IsConnected() {
		return
	}
	r.setStatus(Connecting)
	var conn *Connection
	if conn, err = r.dial(c); err != nil {
		switch {
		case errors.Is(err, ErrHandshakeRejected):
			r.setStatus(Failed)
		case c.Err() != nil:
			// the caller gave up, not the network
			r.mx.Lock()
			retrying := r.reconnecting
			r.mx.Unlock()
			if retrying {
				r.setStatus(Reconnecting)
			} else {
				r.setStatus(Disconnected)
			}
			err = fmt.Errorf("%w: %w", err, c.Err())
		default:
			r.startReconnect()
		}
		return
	}
	r.attach(conn)
	return
}

func (r *Client) dial(c context.T) (conn *Connection, err error) {
	dc, cancel := context.Timeout(c, r.o.connectTimeout)
	defer cancel()
	if conn, err = NewConnection(dc, r.url, r.o.requestHeader, nil); err != nil {
		if IsHandshakeRejection(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrHandshakeRejected, r.url, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailure, r.url, err)
	}
	return
}

// attach makes conn the live connection and starts its reader and writer.
func (r *Client) attach(conn *Connection) {
	r.mx.Lock()
	if r.conn != nil || r.closed.Load() {
		r.mx.Unlock()
		chk.T(conn.Close())
		return
	}
	c, cancel := context.Cancel(r.Ctx)
	lost := make(chan struct{})
	r.conn, r.connCancel, r.connLost = conn, cancel, lost
	r.generation.Add(1)
	r.mx.Unlock()
	go r.writeLoop(c, conn, lost)
	go r.readLoop(c, conn)
	r.setStatus(Connected)
	go r.refire()
}

// detach tears down conn, or whichever connection is live when conn is nil.
// It reports false if that connection was already gone.
func (r *Client) detach(conn *Connection) bool {
	r.mx.Lock()
	if r.conn == nil || (conn != nil && r.conn != conn) {
		r.mx.Unlock()
		return false
	}
	conn = r.conn
	r.connCancel()
	close(r.connLost)
	r.conn, r.connCancel, r.connLost = nil, nil, nil
	r.challenge = nil
	r.mx.Unlock()
	chk.T(conn.Close())
	r.okCallbacks.Range(func(_ string, w okWaiters) bool {
		w.deliver(okResult{err: ErrClosed})
		return true
	})
	return true
}

func (r *Client) lost(conn *Connection, cause error) {
	if !r.detach(conn) || r.closed.Load() {
		return
	}
	log.D.F("{%s} connection lost: %v", r.url, cause)
	r.startReconnect()
}

func (r *Client) startReconnect() {
	if r.closed.Load() {
		return
	}
	r.setStatus(Reconnecting)
	r.mx.Lock()
	if r.reconnecting {
		r.mx.Unlock()
		return
	}
	r.reconnecting = true
	r.mx.Unlock()
	go r.reconnectLoop()
}

func (r *Client) endReconnect() {
	r.mx.Lock()
	r.reconnecting = false
	r.mx.Unlock()
}

func (r *Client) reconnectLoop() {
	for attempt := 1; ; attempt++ {
		if r.o.backoff.Exhausted(attempt) {
			log.W.F("{%s} giving up after %d retries", r.url, attempt-1)
			r.endReconnect()
			r.setStatus(Failed)
			r.closeSubscriptions("relay unreachable")
			return
		}
		t := r.o.clock.Timer(r.o.backoff.Delay(attempt))
		select {
		case <-r.Ctx.Done():
			t.Stop()
			r.endReconnect()
			return
		case <-t.C:
		}
		if r.IsConnected() {
			r.endReconnect()
			return
		}
		r.setStatus(Connecting)
		conn, err := r.dial(r.Ctx)
		if err == nil {
			r.endReconnect()
			r.attach(conn)
			return
		}
		if r.Ctx.Err() != nil {
			r.endReconnect()
			return
		}
		if errors.Is(err, ErrHandshakeRejected) {
			r.endReconnect()
			r.setStatus(Failed)
			r.closeSubscriptions(err.Error())
			return
		}
		log.D.F("{%s} reconnect attempt %d failed: %v", r.url, attempt, err)
		r.setStatus(Reconnecting)
	}
}

// refire sends the REQ of every live subscription on a fresh connection.
func (r *Client) refire() {
	r.Subscriptions.Range(func(_ string, sub *Subscription) bool {
		if sub.live.Load() {
			chk.D(sub.fireOnce())
		}
		return true
	})
}

func (r *Client) closeSubscriptions(why string) {
	r.Subscriptions.Range(func(_ string, sub *Subscription) bool {
		sub.dispatchClosed(why)
		return true
	})
}

func (r *Client) writeLoop(c context.T, conn *Connection, lost chan struct{}) {
	ticker := r.o.clock.Ticker(PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				r.lost(conn, err)
				return
			}
		case wr := <-r.writeQueue:
			var err error
			if r.o.limiter != nil {
				if err = r.o.limiter.Wait(c); err != nil {
					wr.answer <- ErrClosed
					return
				}
			}
			err = conn.WriteMessage(c, wr.msg)
			wr.answer <- err
			if err != nil {
				r.lost(conn, err)
				return
			}
		}
	}
}

func (r *Client) readLoop(c context.T, conn *Connection) {
	buf := new(bytes.Buffer)
	for {
		buf.Reset()
		if err := conn.ReadMessage(c, buf); err != nil {
			r.lost(conn, err)
			return
		}
		r.handle(buf.Bytes())
	}
}

func (r *Client) handle(msg []byte) {
	label, err := envelopes.Identify(msg)
	if chk.D(err) {
		return
	}
	switch label {
	case noticeenvelope.L:
		var env *noticeenvelope.T
		if env, err = noticeenvelope.Parse(msg); chk.D(err) {
			return
		}
		if r.o.noticeHandler != nil {
			r.o.noticeHandler(env.Message)
		} else {
			log.I.F("NOTICE from %s: '%s'", r.url, env.Message)
		}
	case authenvelope.L:
		var env *authenvelope.Challenge
		if env, err = authenvelope.ParseChallenge(msg); chk.D(err) {
			return
		}
		if len(env.Challenge) == 0 {
			return
		}
		r.mx.Lock()
		r.challenge = env.Challenge
		r.mx.Unlock()
		if r.o.authSigner != nil {
			go func() { chk.D(r.Auth(r.Ctx, r.o.authSigner)) }()
		}
	case eventenvelope.L:
		var env *eventenvelope.Result
		if env, err = eventenvelope.ParseResult(msg); chk.D(err) {
			return
		}
		sub, ok := r.Subscriptions.Load(env.Subscription.String())
		if !ok {
			log.T.F("{%s} no subscription with id '%s'", r.url, env.Subscription)
			return
		}
		if !sub.Filters.Match(env.Event) {
			log.D.F("{%s} filter does not match: %v ~ %s", r.url, sub.Filters,
				env.Event.AsJSON())
			return
		}
		if !r.o.assumeValid {
			if err = env.Event.Verify(); err != nil {
				log.D.F("{%s} bad event %s: %v", r.url, env.Event.IDString(), err)
				return
			}
		}
		sub.dispatchEvent(env.Event)
	case eoseenvelope.L:
		var env *eoseenvelope.T
		if env, err = eoseenvelope.Parse(msg); chk.D(err) {
			return
		}
		if sub, ok := r.Subscriptions.Load(env.Subscription.String()); ok {
			sub.dispatchEose()
		}
	case closedenvelope.L:
		var env *closedenvelope.T
		if env, err = closedenvelope.Parse(msg); chk.D(err) {
			return
		}
		sub, ok := r.Subscriptions.Load(env.Subscription.String())
		if !ok {
			return
		}
		if r.o.authSigner != nil && reason.AuthRequired.IsPrefix(env.Reason) &&
			sub.authRetried.CompareAndSwap(false, true) {
			go func() {
				if err := r.Auth(sub.Context, r.o.authSigner); chk.D(err) {
					sub.dispatchClosed(env.ReasonString())
					return
				}
				chk.D(sub.Fire())
			}()
			return
		}
		sub.dispatchClosed(env.ReasonString())
	case okenvelope.L:
		var env *okenvelope.T
		if env, err = okenvelope.Parse(msg); chk.D(err) {
			return
		}
		if w, ok := r.okCallbacks.Load(env.EventID.String()); ok {
			w.deliver(okResult{ok: env.OK, reason: env.ReasonString()})
		}
	default:
		log.D.F("{%s} unknown envelope label %s", r.url, label)
	}
}

// write queues msg for the writer and waits for it to hit the socket.
func (r *Client) write(c context.T, msg []byte, expire <-chan time.Time) (err error) {
	r.mx.Lock()
	lost := r.connLost
	r.mx.Unlock()
	if lost == nil {
		return ErrNotConnected
	}
	wr := writeRequest{msg: msg, answer: make(chan error, 1)}
	select {
	case r.writeQueue <- wr:
	case <-lost:
		return ErrClosed
	case <-expire:
		return ErrTimeout
	case <-c.Done():
		return ctxErr(c)
	}
	select {
	case err = <-wr.answer:
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrClosed, err)
		}
		return
	case <-lost:
		return ErrClosed
	case <-c.Done():
		return ctxErr(c)
	}
}

// ctxErr maps a finished context to the taxonomy: a deadline is a timeout,
// anything else a cancellation.
func ctxErr(c context.T) error {
	if errors.Is(c.Err(), context.Exceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, c.Err())
	}
	return fmt.Errorf("%w: %w", ErrClosed, c.Err())
}

// Publish sends an event and waits for the relay's OK. It returns nil on
// acceptance and a *RejectedError carrying the relay message otherwise.
func (r *Client) Publish(c context.T, ev *event.T) (err error) {
	env := eventenvelope.NewSubmissionWith(ev)
	if err = r.publish(c, ev.ID, env); err != nil && r.retryWithAuth(c, err) {
		err = r.publish(c, ev.ID, env)
	}
	return
}

func (r *Client) retryWithAuth(c context.T, err error) bool {
	var re *RejectedError
	if r.o.authSigner == nil || !errors.As(err, &re) ||
		!reason.AuthRequired.IsPrefix([]byte(re.Reason)) {
		return false
	}
	return !chk.D(r.Auth(c, r.o.authSigner))
}

// Auth answers the last NIP-42 challenge with an event signed by s.
func (r *Client) Auth(c context.T, s signer.I) (err error) {
	challenge := r.Challenge()
	if len(challenge) == 0 {
		return errorf.D("{%s} no auth challenge received", r.url)
	}
	ev := auth.CreateUnsigned(s.Pub(), challenge, r.url)
	if err = ev.Sign(s); chk.E(err) {
		return
	}
	return r.publish(c, ev.ID, authenvelope.NewResponseWith(ev))
}

func (r *Client) publish(c context.T, id []byte, env codec.Envelope) (err error) {
	if !r.IsConnected() {
		return ErrNotConnected
	}
	key := hex.Enc(id)
	ch := r.waitOK(key)
	defer r.doneOK(key, ch)
	timer := r.o.clock.Timer(r.o.sendTimeout)
	defer timer.Stop()
	if err = r.write(c, env.Marshal(nil), timer.C); err != nil {
		return
	}
	select {
	case res := <-ch:
		switch {
		case res.err != nil:
			return res.err
		case res.ok:
			return nil
		default:
			return &RejectedError{Reason: res.reason}
		}
	case <-timer.C:
		return ErrTimeout
	case <-c.Done():
		return ctxErr(c)
	}
}

// Subscribe sends a REQ with the filters and returns the Subscription
// receiving the matching events. While the client is reconnecting the REQ is
// sent once the connection is back.
func (r *Client) Subscribe(c context.T, ff *filters.T,
	opts ...SubscriptionOption) (sub *Subscription, err error) {

	return r.subscribe(c, ff, false, opts)
}

// SubscribePending is Subscribe that also accepts a client which has not
// connected yet. The REQ goes out when it does.
func (r *Client) SubscribePending(c context.T, ff *filters.T,
	opts ...SubscriptionOption) (sub *Subscription, err error) {

	return r.subscribe(c, ff, true, opts)
}

func (r *Client) subscribe(c context.T, ff *filters.T, pending bool,
	opts []SubscriptionOption) (sub *Subscription, err error) {

	if r.closed.Load() {
		return nil, ErrClosed
	}
	switch r.Status() {
	case Failed:
		return nil, ErrNotConnected
	case Disconnected:
		if !pending {
			return nil, ErrNotConnected
		}
	}
	sub = r.PrepareSubscription(c, ff, opts...)
	if r.IsConnected() {
		if err = sub.fireOnce(); err != nil && !errors.Is(err, ErrClosed) &&
			!errors.Is(err, ErrNotConnected) {
			sub.Unsub()
			return nil, errorf.D("couldn't subscribe to %v at %s: %w", ff, r.url, err)
		}
		err = nil
	}
	return
}

// PrepareSubscription registers a Subscription without sending its REQ.
func (r *Client) PrepareSubscription(c context.T, ff *filters.T,
	opts ...SubscriptionOption) *Subscription {

	ctx, cancel := context.Cancel(c)
	sub := &Subscription{
		Relay:             r,
		Context:           ctx,
		cancel:            cancel,
		Filters:           ff,
		Events:            make(event.C),
		EndOfStoredEvents: make(chan struct{}),
		ClosedReason:      make(chan string, 1),
	}
	var label string
	for _, opt := range opts {
		switch o := opt.(type) {
		case WithLabel:
			label = string(o)
		}
	}
	if label != "" {
		sub.id = subscription.MustNew(label + ":" +
			strconv.Itoa(int(subscriptionIDCounter.Add(1))))
	} else {
		sub.id = subscription.NewStd()
	}
	sub.live.Store(true)
	r.Subscriptions.Store(sub.ID(), sub)
	go sub.start()
	return sub
}

// QuerySync subscribes with one filter and collects the stored events until
// EOSE, a CLOSED or the context ends.
func (r *Client) QuerySync(c context.T, f *filter.T,
	opts ...SubscriptionOption) (evs []*event.T, err error) {

	var sub *Subscription
	if sub, err = r.Subscribe(c, filters.New(f), opts...); chk.D(err) {
		return
	}
	defer sub.Unsub()
	if _, ok := c.Deadline(); !ok {
		var cancel context.F
		c, cancel = context.Timeout(c, r.o.sendTimeout)
		defer cancel()
	}
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			evs = append(evs, ev)
		case <-sub.EndOfStoredEvents:
			return
		case why := <-sub.ClosedReason:
			return evs, &RejectedError{Reason: why}
		case <-c.Done():
			return evs, ctxErr(c)
		}
	}
}

// Close disconnects for good, failing in-flight publishes with ErrClosed and
// ending every subscription. Calls after the first return ErrNotConnected.
func (r *Client) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrNotConnected
	}
	r.cancel()
	r.detach(nil)
	r.closeSubscriptions("")
	r.setStatus(Disconnected)
	return nil
}
