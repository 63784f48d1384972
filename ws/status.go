package ws

import (
	"errors"
	"fmt"

	"github.com/gobwas/ws"

	"nostrly.lol/reason"
)

// Status is the connection state of a relay Client.
type Status int32

const (
	Disconnected Status = iota
	Connecting
	Connected
	Reconnecting
	Failed
)

var statusNames = []string{"disconnected", "connecting", "connected",
	"reconnecting", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

var (
	// ErrConnectionFailure is a dial or network failure that is retried.
	ErrConnectionFailure = errors.New("connection failure")
	// ErrHandshakeRejected is a websocket upgrade refused by the relay, or an
	// endpoint that does not speak websocket. It is not retried.
	ErrHandshakeRejected = errors.New("handshake rejected")
	// ErrRejected is wrapped by RejectedError.
	ErrRejected = errors.New("rejected by relay")
	// ErrTimeout is returned when no OK arrived in time.
	ErrTimeout = errors.New("timeout")
	// ErrClosed is returned for work cut short by the connection closing.
	ErrClosed = errors.New("connection closed")
	// ErrNotConnected is returned for work started without a live connection.
	ErrNotConnected = errors.New("not connected")
)

// RejectedError carries the message of an OK false or CLOSED reply.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return ErrRejected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRejected, e.Reason)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Prefix is the machine readable prefix of the reason, if it has one.
func (e *RejectedError) Prefix() reason.R { return reason.Prefix([]byte(e.Reason)) }

// IsHandshakeRejection reports whether a dial error is an upgrade the relay
// answered with a status that will not change on retry. 5xx is transient.
func IsHandshakeRejection(err error) bool {
	var se ws.StatusError
	if errors.As(err, &se) {
		return se < 500
	}
	return false
}
