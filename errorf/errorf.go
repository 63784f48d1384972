// Package errorf is a convenience shortcut for the lol.Logger error
// constructors, which log the error at the site it is created.
package errorf

import (
	"nostrly.lol/lol"
)

var F, E, W, I, D, T lol.Err

func init() {
	F, E, W, I, D, T = lol.Main.Errorf.F, lol.Main.Errorf.E, lol.Main.Errorf.W,
		lol.Main.Errorf.I, lol.Main.Errorf.D, lol.Main.Errorf.T
}
