package client

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nostrly.lol/builder"
	"nostrly.lol/context"
	"nostrly.lol/event"
	"nostrly.lol/filter"
	"nostrly.lol/filters"
	"nostrly.lol/kind"
	"nostrly.lol/kinds"
	"nostrly.lol/normalize"
	"nostrly.lol/p256k"
	"nostrly.lol/reason"
	"nostrly.lol/timestamp"
	"nostrly.lol/ws"
)

func newSigner(t *testing.T) *p256k.Signer {
	s, err := p256k.New()
	require.NoError(t, err)
	return s
}

func connected(t *testing.T, c *Client, urls ...string) {
	for _, u := range urls {
		added, err := c.AddRelay(u)
		require.NoError(t, err)
		require.True(t, added)
	}
	require.NoError(t, c.Connect(context.Bg()))
	for _, u := range urls {
		st, err := c.Status(u)
		require.NoError(t, err)
		require.Equal(t, ws.Connected, st, u)
	}
}

func TestSendEventAggregates(t *testing.T) {
	a := fakeRelay(t, accept)
	b := fakeRelay(t, func(*event.T) (bool, string) {
		return false, string(reason.RateLimited.F("slow down"))
	})
	silent := fakeRelay(t, nil)
	s := newSigner(t)
	c := New(s, WithSendTimeout(500*time.Millisecond), WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, a.URL, b.URL, silent.URL)
	start := time.Now()
	out, err := c.SendEventBuilder(context.Bg(), builder.TextNote("hello"))
	require.NoError(t, err)
	require.Less(t, time.Since(start), 3*time.Second)
	require.Equal(t, []string{normalize.URL(a.URL)}, out.Success)
	require.Equal(t, map[string]string{
		normalize.URL(b.URL):      "rate-limited: slow down",
		normalize.URL(silent.URL): Timeout,
	}, out.Failed)
	require.Equal(t, 64, len(out.ID.String()))
}

func TestSendEventNotConnected(t *testing.T) {
	a := fakeRelay(t, accept)
	c := New(newSigner(t), WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, a.URL)
	_, err := c.AddRelay("ws://127.0.0.1:1")
	require.NoError(t, err)
	out, err := c.SendEventBuilder(context.Bg(), builder.TextNote("hi"))
	require.NoError(t, err)
	require.Equal(t, NotConnected, out.Failed["ws://127.0.0.1:1"])

	skip := New(newSigner(t), WaitForConnection(true), SkipDisconnected(true))
	defer skip.Shutdown()
	connected(t, skip, a.URL)
	_, err = skip.AddRelay("ws://127.0.0.1:1")
	require.NoError(t, err)
	out, err = skip.SendEventBuilder(context.Bg(), builder.TextNote("hi"))
	require.NoError(t, err)
	require.Empty(t, out.Failed)
}

func TestSendEventAllFailed(t *testing.T) {
	b := fakeRelay(t, func(*event.T) (bool, string) { return false, "blocked: go away" })
	c := New(newSigner(t), WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, b.URL)
	out, err := c.SendEventBuilder(context.Bg(), builder.TextNote("hi"))
	require.ErrorIs(t, err, ErrPublishFailed)
	require.Equal(t, "blocked: go away", out.Failed[normalize.URL(b.URL)])
}

func TestSendEventRejectedAndDisconnected(t *testing.T) {
	c := New(newSigner(t), WaitForConnection(true), WithSendTimeout(2*time.Second))
	defer c.Shutdown()
	var rejecting []string
	for range 4 {
		srv := fakeRelay(t, func(*event.T) (bool, string) { return false, "blocked: no" })
		rejecting = append(rejecting, srv.URL)
	}
	connected(t, c, rejecting...)
	for i := range 20 {
		_, err := c.AddRelay(fmt.Sprintf("ws://127.0.0.1:%d", i+1))
		require.NoError(t, err)
	}
	for range 10 {
		out, err := c.SendEventBuilder(context.Bg(), builder.TextNote("hi"))
		require.ErrorIs(t, err, ErrPublishFailed)
		require.Len(t, out.Failed, 24)
		for _, u := range rejecting {
			require.Equal(t, "blocked: no", out.Failed[normalize.URL(u)])
		}
		require.Equal(t, NotConnected, out.Failed["ws://127.0.0.1:1"])
	}
}

func TestSendEventInvalid(t *testing.T) {
	c := New(nil)
	ev, err := builder.TextNote("hi").Sign(newSigner(t))
	require.NoError(t, err)
	ev.Content = []byte("tampered")
	out, err := c.SendEvent(context.Bg(), ev)
	require.ErrorIs(t, err, event.ErrInvalidID)
	require.Nil(t, out)
}

func TestSendEventNoRelays(t *testing.T) {
	c := New(newSigner(t))
	_, err := c.SendEventBuilder(context.Bg(), builder.TextNote("hi"))
	require.ErrorIs(t, err, ErrNoRelays)
}

func TestSendEventBuilderNoSigner(t *testing.T) {
	_, err := New(nil).SendEventBuilder(context.Bg(), builder.TextNote("hi"))
	require.ErrorIs(t, err, ErrNoSigner)
}

func TestSendEventBuilderDifficulty(t *testing.T) {
	var got atomic.Pointer[event.T]
	a := fakeRelay(t, func(ev *event.T) (bool, string) {
		got.Store(ev)
		return true, ""
	})
	c := New(newSigner(t), WaitForConnection(true), WithDifficulty(8))
	defer c.Shutdown()
	connected(t, c, a.URL)
	b := builder.TextNote("work")
	_, err := c.SendEventBuilder(context.Bg(), b)
	require.NoError(t, err)
	require.GreaterOrEqual(t, got.Load().Difficulty(), 8)
	require.Zero(t, b.Difficulty())
}

func TestRelays(t *testing.T) {
	c := New(nil, WithMaxRelays(2))
	added, err := c.AddRelay("wss://relay.one")
	require.NoError(t, err)
	require.True(t, added)
	added, err = c.AddRelay("relay.one")
	require.NoError(t, err)
	require.False(t, added)
	_, err = c.AddRelay("ws://localhost:7447")
	require.NoError(t, err)
	_, err = c.AddRelay("wss://relay.three")
	require.ErrorIs(t, err, ErrTooManyRelays)
	_, err = c.AddRelay("")
	require.ErrorIs(t, err, ErrInvalidURL)
	require.Equal(t, []string{"ws://localhost:7447", "wss://relay.one"}, c.Relays())
	st, err := c.Status("relay.one")
	require.NoError(t, err)
	require.Equal(t, ws.Disconnected, st)
	require.ErrorIs(t, c.RemoveRelay("wss://relay.three"), ErrRelayNotFound)
	require.NoError(t, c.RemoveRelay("wss://relay.one"))
	_, err = c.Relay("wss://relay.one")
	require.ErrorIs(t, err, ErrRelayNotFound)
	require.NoError(t, c.Shutdown())
	require.NoError(t, c.Shutdown())
	_, err = c.AddRelay("wss://relay.four")
	require.ErrorIs(t, err, ErrShutdown)
	require.ErrorIs(t, c.Connect(context.Bg()), ErrShutdown)
	require.Empty(t, c.Relays())
}

func TestSubscribeDeduplicates(t *testing.T) {
	s := newSigner(t)
	var evs []*event.T
	for _, content := range []string{"shared", "only a", "only b"} {
		ev, err := builder.TextNote(content).Sign(s)
		require.NoError(t, err)
		evs = append(evs, ev)
	}
	a := fakeRelay(t, nil, evs[0], evs[1])
	b := fakeRelay(t, nil, evs[0], evs[2])
	var seen atomic.Int32
	c := New(nil, WaitForConnection(true),
		WithEventMiddleware(func(IncomingEvent) { seen.Add(1) }))
	defer c.Shutdown()
	connected(t, c, a.URL, b.URL)
	f := filter.New()
	f.Kinds = kinds.New(kind.TextNote)
	ctx, cancel := context.Timeout(context.Bg(), 5*time.Second)
	defer cancel()
	counts := make(map[string]int)
	for ie := range c.SubscribeEose(ctx, filters.New(f)) {
		counts[ie.Event.IDString()]++
	}
	require.NoError(t, ctx.Err())
	require.Len(t, counts, 3)
	for id, n := range counts {
		require.Equal(t, 1, n, id)
	}
	require.Equal(t, int32(4), seen.Load())
}

func TestSubscribeReachesAddedRelay(t *testing.T) {
	s := newSigner(t)
	first, err := builder.TextNote("first").Sign(s)
	require.NoError(t, err)
	second, err := builder.TextNote("second").Sign(s)
	require.NoError(t, err)
	a := fakeRelay(t, nil, first)
	b := fakeRelay(t, nil, second)
	c := New(nil, WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, a.URL)
	ctx, cancel := context.Timeout(context.Bg(), 5*time.Second)
	defer cancel()
	events, err := c.SubscribeWithID(ctx, "feed", filters.New(filter.New()))
	require.NoError(t, err)
	ie := <-events
	require.NotNil(t, ie.Event, "stream closed before the first relay answered")
	require.Equal(t, first.ID, ie.Event.ID)
	require.Equal(t, normalize.URL(a.URL), ie.Relay)

	_, err = c.AddRelay(b.URL)
	require.NoError(t, err)
	require.NoError(t, c.Connect(ctx))
	ie = <-events
	require.NotNil(t, ie.Event, "stream closed before the added relay answered")
	require.Equal(t, second.ID, ie.Event.ID)
	require.Equal(t, normalize.URL(b.URL), ie.Relay)
}

func TestSubscriptionRegistry(t *testing.T) {
	a := fakeRelay(t, nil)
	c := New(nil, WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, a.URL)
	ff := filters.New(filter.New())
	events, err := c.SubscribeWithID(context.Bg(), "feed", ff)
	require.NoError(t, err)
	_, err = c.SubscribeWithID(context.Bg(), "feed", ff)
	require.ErrorIs(t, err, ErrDuplicateSubscription)
	got, err := c.Subscription("feed")
	require.NoError(t, err)
	require.Same(t, ff, got)
	require.Equal(t, map[string]*filters.T{"feed": ff}, c.Subscriptions())

	require.NoError(t, c.Unsubscribe("feed"))
	require.Empty(t, c.Subscriptions())
	require.ErrorIs(t, c.Unsubscribe("feed"), ErrSubscriptionNotFound)
	_, err = c.Subscription("feed")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
	select {
	case _, ok := <-events:
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close after Unsubscribe")
	}
	_, err = c.SubscribeWithID(context.Bg(), "feed", ff)
	require.NoError(t, err)
	c.UnsubscribeAll()
	require.Empty(t, c.Subscriptions())
}

func TestRemoveAllRelays(t *testing.T) {
	a := fakeRelay(t, accept)
	b := fakeRelay(t, accept)
	c := New(nil, WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, a.URL, b.URL)
	ra, err := c.Relay(a.URL)
	require.NoError(t, err)
	require.NoError(t, c.RemoveAllRelays())
	require.Empty(t, c.Relays())
	require.Equal(t, ws.Disconnected, ra.Status())
	_, err = c.Status(b.URL)
	require.ErrorIs(t, err, ErrRelayNotFound)
	added, err := c.AddRelay(a.URL)
	require.NoError(t, err)
	require.True(t, added)
}

func TestSubscribeEndsWithContext(t *testing.T) {
	a := fakeRelay(t, nil)
	c := New(nil, WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, a.URL)
	ctx, cancel := context.Cancel(context.Bg())
	events := c.Subscribe(ctx, filters.New(filter.New()))
	cancel()
	select {
	case _, ok := <-events:
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("merged stream did not close")
	}
}

func TestFetchEvents(t *testing.T) {
	s := newSigner(t)
	older, err := builder.TextNote("older").CustomCreatedAt(timestamp.FromUnix(100)).Sign(s)
	require.NoError(t, err)
	newer, err := builder.TextNote("newer").CustomCreatedAt(timestamp.FromUnix(200)).Sign(s)
	require.NoError(t, err)
	a := fakeRelay(t, nil, older, newer)
	b := fakeRelay(t, nil, newer)
	c := New(nil, WaitForConnection(true))
	defer c.Shutdown()
	connected(t, c, a.URL, b.URL)
	evs, err := c.FetchEvents(context.Bg(), filter.New())
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, newer.ID, evs[0].ID)
	require.Equal(t, older.ID, evs[1].ID)
}

func TestFailureReason(t *testing.T) {
	for err, want := range map[error]string{
		&ws.RejectedError{Reason: "pow: need 20"}: "pow: need 20",
		&ws.RejectedError{}:                       ws.ErrRejected.Error(),
		ws.ErrTimeout:                             Timeout,
		ws.ErrNotConnected:                        NotConnected,
		ws.ErrClosed:                              ConnectionClosed,
		context.Canceled:                          ConnectionClosed,
		errors.New("boom"):                        "boom",
	} {
		require.Equal(t, want, FailureReason(err))
	}
}
