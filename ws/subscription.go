package ws

import (
	"sync"
	"sync/atomic"

	"nostrly.lol/chk"
	"nostrly.lol/context"
	"nostrly.lol/envelopes/closeenvelope"
	"nostrly.lol/envelopes/reqenvelope"
	"nostrly.lol/event"
	"nostrly.lol/filters"
	"nostrly.lol/subscription"
)

// Subscription is one REQ on one relay.
type Subscription struct {
	id *subscription.Id

	Relay   *Client
	Filters *filters.T

	// Events emits matching events in the order the relay sent them. It is
	// closed when the subscription ends.
	Events event.C
	mu     sync.Mutex

	// EndOfStoredEvents is closed when the relay sends EOSE.
	EndOfStoredEvents chan struct{}

	// ClosedReason receives the message of a relay CLOSED, or of the client
	// giving up on the relay.
	ClosedReason chan string

	// Context is done when the subscription ends.
	Context context.T
	cancel  context.F

	live        atomic.Bool
	eosed       atomic.Bool
	closed      atomic.Bool
	authRetried atomic.Bool
	generation  atomic.Int64
}

// SubscriptionOption is the type of the argument passed for that.
type SubscriptionOption interface {
	IsSubscriptionOption()
}

// WithLabel puts a label on the subscription id, followed by a counter.
type WithLabel string

func (_ WithLabel) IsSubscriptionOption() {}

// ID is the subscription id sent in the REQ.
func (sub *Subscription) ID() string { return sub.id.String() }

// GetID returns the subscription id.
func (sub *Subscription) GetID() *subscription.Id { return sub.id }

func (sub *Subscription) start() {
	<-sub.Context.Done()
	sub.Unsub()
	sub.mu.Lock()
	close(sub.Events)
	sub.mu.Unlock()
}

func (sub *Subscription) dispatchEvent(ev *event.T) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.Context.Err() != nil {
		return
	}
	select {
	case sub.Events <- ev:
	case <-sub.Context.Done():
	}
}

func (sub *Subscription) dispatchEose() {
	if sub.eosed.CompareAndSwap(false, true) {
		close(sub.EndOfStoredEvents)
	}
}

// dispatchClosed ends the subscription without sending CLOSE, the relay
// having already dropped it. An empty reason is not reported.
func (sub *Subscription) dispatchClosed(reason string) {
	if !sub.closed.CompareAndSwap(false, true) {
		return
	}
	sub.live.Store(false)
	if reason != "" {
		sub.ClosedReason <- reason
	}
	sub.cancel()
}

// Unsub closes the subscription, sending a CLOSE to the relay if it is still
// live there.
func (sub *Subscription) Unsub() {
	sub.cancel()
	if sub.live.CompareAndSwap(true, false) && sub.Relay.IsConnected() {
		chk.D(sub.Relay.write(sub.Relay.Ctx,
			closeenvelope.NewFrom(sub.id).Marshal(nil), nil))
	}
	sub.Relay.Subscriptions.Delete(sub.ID())
}

// Close is Unsub.
func (sub *Subscription) Close() { sub.Unsub() }

// Fire sends the REQ.
func (sub *Subscription) Fire() (err error) {
	if err = sub.Context.Err(); err != nil {
		return
	}
	return sub.Relay.write(sub.Context,
		reqenvelope.NewFrom(sub.id, sub.Filters).Marshal(nil), nil)
}

// fireOnce sends the REQ unless it already went out on this connection.
func (sub *Subscription) fireOnce() (err error) {
	gen := sub.Relay.generation.Load()
	old := sub.generation.Load()
	if old == gen || !sub.generation.CompareAndSwap(old, gen) {
		return
	}
	return sub.Fire()
}
