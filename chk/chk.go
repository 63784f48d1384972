// Package chk is a convenience shortcut for the lol.Logger error checkers,
// which print the error at the named level when it is not nil.
//
//	if err = doThing(); chk.E(err) {
//		return
//	}
package chk

import (
	"nostrly.lol/lol"
)

var F, E, W, I, D, T lol.Chk

func init() {
	F, E, W, I, D, T = lol.Main.Check.F, lol.Main.Check.E, lol.Main.Check.W,
		lol.Main.Check.I, lol.Main.Check.D, lol.Main.Check.T
}
