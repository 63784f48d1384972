// Package context is a set of shorter names for the stdlib context.
package context

import (
	"context"
	"time"
)

type (
	// T is a context.Context.
	T = context.Context
	// F is a context.CancelFunc.
	F = context.CancelFunc
)

var (
	Bg       = context.Background
	Cancel   = context.WithCancel
	Timeout  = context.WithTimeout
	Deadline = context.WithDeadline
	Cause    = context.Cause
	Canceled = context.Canceled
	Exceeded = context.DeadlineExceeded
)

// TimeoutIfNone returns a derived context with the given timeout if c has no
// deadline, otherwise a plain cancellable child of c.
func TimeoutIfNone(c T, d time.Duration) (T, F) {
	if _, ok := c.Deadline(); !ok && d > 0 {
		return context.WithTimeout(c, d)
	}
	return context.WithCancel(c)
}
