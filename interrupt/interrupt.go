// Package interrupt runs registered handlers when the process gets SIGINT or
// SIGTERM, in reverse order of registration, before exiting.
package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"nostrly.lol/log"
)

var (
	mx       sync.Mutex
	handlers []func()
	once     sync.Once
	done     = make(chan struct{})
	signals  = make(chan os.Signal, 1)
	// exit is swapped out in tests.
	exit = os.Exit
)

// AddHandler registers a function to run on interrupt. The first call starts
// listening for signals.
func AddHandler(h func()) {
	mx.Lock()
	handlers = append(handlers, h)
	mx.Unlock()
	once.Do(listen)
}

// Request runs the handlers as if a signal had arrived.
func Request() {
	once.Do(listen)
	select {
	case signals <- syscall.SIGINT:
	default:
	}
}

// HandlersDone is closed once every handler has run.
func HandlersDone() <-chan struct{} { return done }

func listen() {
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.I.F("received %s, shutting down", sig)
		mx.Lock()
		hs := handlers
		handlers = nil
		mx.Unlock()
		for i := len(hs) - 1; i >= 0; i-- {
			hs[i]()
		}
		close(done)
		exit(1)
	}()
}
