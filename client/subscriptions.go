package client

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"nostrly.lol/context"
	"nostrly.lol/filters"
	"nostrly.lol/log"
	"nostrly.lol/subscription"
	"nostrly.lol/ws"
)

// poolSubscription is one merged subscription over the relays of a Client.
// Its events channel closes when the last relay stream ends.
type poolSubscription struct {
	id      string
	filters *filters.T
	ctx     context.T
	cancel  context.F
	eose    bool
	seen    *lru.Cache[string, struct{}]
	events  chan IncomingEvent

	mu      sync.Mutex
	streams int
	ended   bool
}

// Subscribe sends the filters to every relay and merges what comes back,
// each event once. Relays added later get the filters too. The channel
// closes when ctx is done or every relay subscription has ended.
func (c *Client) Subscribe(ctx context.T, ff *filters.T) <-chan IncomingEvent {
	events, err := c.SubscribeWithID(ctx, subscription.NewStd().String(), ff)
	if err != nil {
		log.E.F("subscribing: %v", err)
		ch := make(chan IncomingEvent)
		close(ch)
		return ch
	}
	return events
}

// SubscribeWithID is Subscribe under a chosen id, which Subscriptions,
// Subscription and Unsubscribe refer to.
func (c *Client) SubscribeWithID(ctx context.T, id string, ff *filters.T) (
	events <-chan IncomingEvent, err error) {

	var ps *poolSubscription
	if ps, err = c.subscribe(ctx, id, ff, false); err != nil {
		return
	}
	return ps.events, nil
}

// SubscribeEose is Subscribe for stored events only: each relay's stream
// ends at its EOSE. It is not kept among the Subscriptions.
func (c *Client) SubscribeEose(ctx context.T, ff *filters.T) <-chan IncomingEvent {
	ps, _ := c.subscribe(ctx, subscription.NewStd().String(), ff, true)
	return ps.events
}

func (c *Client) subscribe(ctx context.T, id string, ff *filters.T, eose bool) (
	ps *poolSubscription, err error) {

	seen, err := lru.New[string, struct{}](c.opts.DedupCacheSize)
	if err != nil {
		seen, _ = lru.New[string, struct{}](DefaultDedupCacheSize)
		err = nil
	}
	ps = &poolSubscription{
		id:      id,
		filters: ff,
		eose:    eose,
		seen:    seen,
		events:  make(chan IncomingEvent),
		// held until every current relay has its stream
		streams: 1,
	}
	ps.ctx, ps.cancel = context.Cancel(ctx)
	c.mx.Lock()
	if !eose {
		if _, dup := c.subs[id]; dup {
			c.mx.Unlock()
			ps.cancel()
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateSubscription, id)
		}
		c.subs[id] = ps
	}
	relays := slices.Collect(maps.Values(c.relays))
	c.mx.Unlock()
	for _, r := range relays {
		c.stream(ps, r, false)
	}
	c.endStream(ps)
	return
}

// stream starts feeding ps from r. pending accepts a relay that has not
// connected yet.
func (c *Client) stream(ps *poolSubscription, r *ws.Client, pending bool) {
	ps.mu.Lock()
	if ps.ended {
		ps.mu.Unlock()
		return
	}
	ps.streams++
	ps.mu.Unlock()
	go func() {
		defer c.endStream(ps)
		c.relayStream(ps, r, pending)
	}()
}

func (c *Client) endStream(ps *poolSubscription) {
	ps.mu.Lock()
	ps.streams--
	last := ps.streams == 0
	if last {
		ps.ended = true
	}
	ps.mu.Unlock()
	if !last {
		return
	}
	ps.cancel()
	c.mx.Lock()
	if c.subs[ps.id] == ps {
		delete(c.subs, ps.id)
	}
	c.mx.Unlock()
	close(ps.events)
}

func (c *Client) relayStream(ps *poolSubscription, r *ws.Client, pending bool) {
	var sub *ws.Subscription
	var err error
	if pending {
		sub, err = r.SubscribePending(ps.ctx, ps.filters)
	} else {
		sub, err = r.Subscribe(ps.ctx, ps.filters)
	}
	if err != nil {
		log.D.F("subscribing to %s: %v", r.URL(), err)
		return
	}
	defer sub.Unsub()
	var eosed <-chan struct{}
	if ps.eose {
		eosed = sub.EndOfStoredEvents
	}
	for {
		select {
		case <-ps.ctx.Done():
			return
		case <-eosed:
			return
		case why := <-sub.ClosedReason:
			log.I.F("CLOSED from %s: '%s'", r.URL(), why)
			return
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			ie := IncomingEvent{Event: ev, Relay: r.URL()}
			for _, mh := range c.opts.eventMiddleware {
				mh(ie)
			}
			if dup, _ := ps.seen.ContainsOrAdd(ev.IDString(), struct{}{}); dup {
				continue
			}
			select {
			case ps.events <- ie:
			case <-ps.ctx.Done():
				return
			}
		}
	}
}

// Subscriptions returns the filters of every live subscription by id.
func (c *Client) Subscriptions() (subs map[string]*filters.T) {
	c.mx.RLock()
	defer c.mx.RUnlock()
	subs = make(map[string]*filters.T, len(c.subs))
	for id, ps := range c.subs {
		subs[id] = ps.filters
	}
	return
}

// Subscription returns the filters of one live subscription.
func (c *Client) Subscription(id string) (ff *filters.T, err error) {
	c.mx.RLock()
	ps, ok := c.subs[id]
	c.mx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrSubscriptionNotFound, id)
	}
	return ps.filters, nil
}

// Unsubscribe ends a subscription on every relay and closes its channel.
func (c *Client) Unsubscribe(id string) (err error) {
	c.mx.Lock()
	ps, ok := c.subs[id]
	delete(c.subs, id)
	c.mx.Unlock()
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrSubscriptionNotFound, id)
	}
	ps.cancel()
	return
}

// UnsubscribeAll ends every subscription.
func (c *Client) UnsubscribeAll() {
	c.mx.Lock()
	subs := c.subs
	c.subs = make(map[string]*poolSubscription)
	c.mx.Unlock()
	for _, ps := range subs {
		ps.cancel()
	}
}
