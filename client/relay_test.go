package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/net/websocket"

	"nostrly.lol/envelopes"
	"nostrly.lol/envelopes/eoseenvelope"
	"nostrly.lol/envelopes/eventenvelope"
	"nostrly.lol/envelopes/okenvelope"
	"nostrly.lol/envelopes/reqenvelope"
	"nostrly.lol/event"
)

// fakeRelay answers EVENT with ok (nothing at all when ok is nil) and REQ
// with stored followed by EOSE.
func fakeRelay(t *testing.T, ok func(ev *event.T) (accepted bool, msg string),
	stored ...*event.T) *httptest.Server {

	srv := httptest.NewServer(&websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			for {
				var msg []byte
				if err := websocket.Message.Receive(conn, &msg); err != nil {
					return
				}
				label, err := envelopes.Identify(msg)
				if err != nil {
					t.Errorf("Identify: %v", err)
					return
				}
				var res []byte
				switch label {
				case eventenvelope.L:
					env, err := eventenvelope.Parse(msg)
					if err != nil {
						t.Errorf("eventenvelope.Parse: %v", err)
						return
					}
					if ok == nil {
						continue
					}
					accepted, reason := ok(env.T)
					res = okenvelope.NewFrom(env.T.ID, accepted, []byte(reason)).Marshal(nil)
				case reqenvelope.L:
					req, err := reqenvelope.Parse(msg)
					if err != nil {
						t.Errorf("reqenvelope.Parse: %v", err)
						return
					}
					for _, ev := range stored {
						if err = websocket.Message.Send(conn,
							string(eventenvelope.NewResultWith(req.Subscription, ev).Marshal(nil))); err != nil {
							return
						}
					}
					res = eoseenvelope.NewFrom(req.Subscription).Marshal(nil)
				default:
					continue
				}
				if err = websocket.Message.Send(conn, string(res)); err != nil {
					return
				}
			}
		},
	})
	t.Cleanup(srv.Close)
	return srv
}

func accept(*event.T) (bool, string) { return true, "" }
