package ws

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"nostrly.lol/auth"
	"nostrly.lol/builder"
	"nostrly.lol/context"
	"nostrly.lol/envelopes"
	"nostrly.lol/envelopes/authenvelope"
	"nostrly.lol/envelopes/eventenvelope"
	"nostrly.lol/envelopes/noticeenvelope"
	"nostrly.lol/envelopes/okenvelope"
	"nostrly.lol/event"
	"nostrly.lol/filter"
	"nostrly.lol/filters"
	"nostrly.lol/normalize"
	"nostrly.lol/p256k"
	"nostrly.lol/reason"
)

func newWebsocketServer(handler func(*websocket.Conn)) *httptest.Server {
	return httptest.NewServer(&websocket.Server{
		Handshake: anyOriginHandshake,
		Handler:   handler,
	})
}

// anyOriginHandshake is an alternative to default in golang.org/x/net/websocket
// which checks for origin. nostr client sends no origin and it makes no difference
// for the tests here anyway.
var anyOriginHandshake = func(conf *websocket.Config, r *http.Request) error {
	return nil
}

// newFakeRelay runs handle on every message a client sends.
func newFakeRelay(t *testing.T, handle func(conn *websocket.Conn, msg []byte)) *httptest.Server {
	srv := newWebsocketServer(func(conn *websocket.Conn) {
		for {
			var msg []byte
			if err := websocket.Message.Receive(conn, &msg); err != nil {
				return
			}
			handle(conn, msg)
		}
	})
	t.Cleanup(srv.Close)
	return srv
}

func send(t *testing.T, conn *websocket.Conn, b []byte) {
	if err := websocket.Message.Send(conn, string(b)); err != nil {
		t.Errorf("websocket.Message.Send: %v", err)
	}
}

func mustRelayConnect(t *testing.T, url string, opts ...Option) *Client {
	rl, err := RelayConnect(context.Bg(), url, opts...)
	if err != nil {
		t.Fatalf("RelayConnect: %v", err)
	}
	t.Cleanup(func() { rl.Close() })
	return rl
}

func signedNote(t *testing.T, content string) *event.T {
	s, err := p256k.New()
	require.NoError(t, err)
	ev, err := builder.TextNote(content).Sign(s)
	require.NoError(t, err)
	return ev
}

func TestPublish(t *testing.T) {
	textNote := signedNote(t, "hello")
	var published atomic.Bool
	srv := newFakeRelay(t, func(conn *websocket.Conn, msg []byte) {
		env, err := eventenvelope.Parse(msg)
		if err != nil {
			t.Errorf("eventenvelope.Parse: %v", err)
			return
		}
		if string(env.T.Serialize()) != string(textNote.Serialize()) {
			t.Errorf("received event:\n%s\nwant:\n%s", env.T.Serialize(),
				textNote.Serialize())
		}
		published.Store(true)
		send(t, conn, okenvelope.NewFrom(textNote.ID, true).Marshal(nil))
	})
	rl := mustRelayConnect(t, srv.URL)
	if err := rl.Publish(context.Bg(), textNote); err != nil {
		t.Fatalf("publish should have succeeded: %v", err)
	}
	if !published.Load() {
		t.Errorf("fake relay server saw no event")
	}
}

func TestPublishSameEventConcurrently(t *testing.T) {
	textNote := signedNote(t, "twice")
	var received atomic.Int32
	srv := newFakeRelay(t, func(conn *websocket.Conn, msg []byte) {
		// answer once, after both copies arrived
		if received.Add(1) == 2 {
			send(t, conn, okenvelope.NewFrom(textNote.ID, true).Marshal(nil))
		}
	})
	rl := mustRelayConnect(t, srv.URL, WithSendTimeout(2*time.Second))
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = rl.Publish(context.Bg(), textNote)
		}()
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	_, pending := rl.okCallbacks.Load(textNote.IDString())
	require.False(t, pending)
}

func TestPublishBlocked(t *testing.T) {
	textNote := signedNote(t, "hello")
	srv := newFakeRelay(t, func(conn *websocket.Conn, msg []byte) {
		send(t, conn, okenvelope.NewFrom(textNote.ID, false,
			reason.Blocked.F("no reason")).Marshal(nil))
	})
	rl := mustRelayConnect(t, srv.URL)
	err := rl.Publish(context.Bg(), textNote)
	require.ErrorIs(t, err, ErrRejected)
	var re *RejectedError
	require.True(t, errors.As(err, &re))
	require.Equal(t, "blocked: no reason", re.Reason)
	require.Equal(t, reason.Blocked.S(), re.Prefix().S())
}

func TestPublishTimeout(t *testing.T) {
	textNote := signedNote(t, "hello")
	srv := newFakeRelay(t, func(conn *websocket.Conn, msg []byte) {})
	rl := mustRelayConnect(t, srv.URL, WithSendTimeout(200*time.Millisecond))
	start := time.Now()
	err := rl.Publish(context.Bg(), textNote)
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishContextDeadline(t *testing.T) {
	textNote := signedNote(t, "hello")
	srv := newFakeRelay(t, func(conn *websocket.Conn, msg []byte) {})
	rl := mustRelayConnect(t, srv.URL)
	c, cancel := context.Timeout(context.Bg(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, rl.Publish(c, textNote), ErrTimeout)
}

func TestPublishConnectionClosed(t *testing.T) {
	textNote := signedNote(t, "hello")
	srv := newWebsocketServer(func(conn *websocket.Conn) {
		var msg []byte
		_ = websocket.Message.Receive(conn, &msg)
		// hang up with the publish in flight
	})
	defer srv.Close()
	rl := mustRelayConnect(t, srv.URL, WithBackoff(Backoff{Initial: time.Hour}))
	require.ErrorIs(t, rl.Publish(context.Bg(), textNote), ErrClosed)
}

func TestPublishNotConnected(t *testing.T) {
	rl := NewClient(context.Bg(), "ws://127.0.0.1:1")
	require.Equal(t, Disconnected, rl.Status())
	require.ErrorIs(t, rl.Publish(context.Bg(), signedNote(t, "x")), ErrNotConnected)
}

func TestNotice(t *testing.T) {
	notices := make(chan string, 1)
	srv := newWebsocketServer(func(conn *websocket.Conn) {
		send(t, conn, noticeenvelope.NewFrom("hello there").Marshal(nil))
		var msg []byte
		_ = websocket.Message.Receive(conn, &msg)
	})
	defer srv.Close()
	mustRelayConnect(t, srv.URL, WithNoticeHandler(func(n []byte) {
		notices <- string(n)
	}))
	select {
	case n := <-notices:
		require.Equal(t, "hello there", n)
	case <-time.After(5 * time.Second):
		t.Fatal("no notice")
	}
}

func TestAuthOnChallenge(t *testing.T) {
	s, err := p256k.New()
	require.NoError(t, err)
	challenge := auth.GenerateChallenge()
	authed := make(chan error, 1)
	srv := newWebsocketServer(func(conn *websocket.Conn) {
		relayURL := normalize.URL("http://" + conn.Request().Host)
		send(t, conn, authenvelope.NewChallengeWith(challenge).Marshal(nil))
		for {
			var msg []byte
			if err := websocket.Message.Receive(conn, &msg); err != nil {
				return
			}
			if label, _ := envelopes.Identify(msg); label != authenvelope.L {
				continue
			}
			env, err := authenvelope.ParseResponse(msg)
			if err != nil {
				authed <- err
				return
			}
			_, err = auth.Validate(env.Event, challenge, relayURL)
			authed <- err
			send(t, conn, okenvelope.NewFrom(env.Event.ID, err == nil).Marshal(nil))
		}
	})
	defer srv.Close()
	rl := mustRelayConnect(t, srv.URL, WithAuthSigner{s})
	select {
	case err = <-authed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no auth response")
	}
	require.Equal(t, challenge, rl.Challenge())
}

func TestAuthWithoutChallenge(t *testing.T) {
	s, err := p256k.New()
	require.NoError(t, err)
	srv := newFakeRelay(t, func(conn *websocket.Conn, msg []byte) {})
	rl := mustRelayConnect(t, srv.URL)
	require.Error(t, rl.Auth(context.Bg(), s))
}

func TestHandshakeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "go away", http.StatusForbidden)
	}))
	defer srv.Close()
	rl := NewClient(context.Bg(), srv.URL)
	defer rl.Close()
	require.ErrorIs(t, rl.Connect(context.Bg()), ErrHandshakeRejected)
	require.Equal(t, Failed, rl.Status())
}

func TestConnectRetriesThenFails(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	var mx sync.Mutex
	var seen []Status
	rl := NewClient(context.Bg(), "ws://"+addr,
		WithBackoff(Backoff{Initial: 10 * time.Millisecond, Multiplier: 2,
			Max: 50 * time.Millisecond, MaxRetries: 2}),
		WithStatusHandler(func(_ string, s Status) {
			mx.Lock()
			seen = append(seen, s)
			mx.Unlock()
		}))
	defer rl.Close()
	require.ErrorIs(t, rl.Connect(context.Bg()), ErrConnectionFailure)
	require.Eventually(t, func() bool { return rl.Status() == Failed },
		5*time.Second, 10*time.Millisecond)
	mx.Lock()
	defer mx.Unlock()
	require.Equal(t, Connecting, seen[0])
	require.Contains(t, seen, Reconnecting)
	require.Equal(t, Failed, seen[len(seen)-1])
}

func TestConnectCanceled(t *testing.T) {
	c, cancel := context.Cancel(context.Bg())
	cancel()
	rl := NewClient(context.Bg(), "ws://127.0.0.1:1")
	defer rl.Close()
	err := rl.Connect(c)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Disconnected, rl.Status())
}

func TestClose(t *testing.T) {
	srv := newFakeRelay(t, func(conn *websocket.Conn, msg []byte) {})
	rl := mustRelayConnect(t, srv.URL)
	require.True(t, rl.IsConnected())
	sub, err := rl.Subscribe(context.Bg(), filters.New(filter.New()))
	require.NoError(t, err)
	require.NoError(t, rl.Close())
	require.ErrorIs(t, rl.Close(), ErrNotConnected)
	require.Equal(t, Disconnected, rl.Status())
	require.ErrorIs(t, rl.Publish(context.Bg(), signedNote(t, "x")), ErrNotConnected)
	require.ErrorIs(t, rl.Connect(context.Bg()), ErrClosed)
	select {
	case _, ok := <-sub.Events:
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	var conns atomic.Int32
	srv := newWebsocketServer(func(conn *websocket.Conn) {
		if conns.Add(1) == 1 {
			// first connection is dropped straight away
			return
		}
		var msg []byte
		for websocket.Message.Receive(conn, &msg) == nil {
		}
	})
	defer srv.Close()
	rl := mustRelayConnect(t, srv.URL,
		WithBackoff(Backoff{Initial: 10 * time.Millisecond, Multiplier: 1}))
	require.Eventually(t, func() bool {
		return conns.Load() >= 2 && rl.IsConnected()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		Disconnected: "disconnected",
		Connecting:   "connecting",
		Connected:    "connected",
		Reconnecting: "reconnecting",
		Failed:       "failed",
		Status(42):   "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d: got %s want %s", s, got, want)
		}
	}
}
