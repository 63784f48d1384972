// Package lol (log of location) is a simple logging library that prints a
// timestamp, a level tag and the source location of every line, so that
// tracing errors back to where they were noticed is trivial. Levels can be
// raised or lowered at runtime for quieter or noisier output.
package lol

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

const (
	Off = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

// LevelNames are the strings accepted by SetLogLevel, in level order.
var LevelNames = []string{
	"off",
	"fatal",
	"error",
	"warn",
	"info",
	"debug",
	"trace",
}

type (
	// Ln prints its arguments separated by spaces.
	Ln func(a ...any)
	// F prints like fmt.Printf.
	F func(format string, a ...any)
	// S prints a spew.Sdump of its arguments.
	S func(a ...any)
	// C takes a closure so the message is only built when the level is
	// active.
	C func(closure func() string)
	// Chk prints the error if it is not nil and returns whether it was not
	// nil.
	Chk func(e error) bool
	// Err builds an error with fmt.Errorf, prints it, and returns it.
	Err func(format string, a ...any) error

	// LevelPrinter is the set of printers for one level.
	LevelPrinter struct {
		Ln
		F
		S
		C
		Chk
		Err
	}

	// LevelSpec is the name, ID and colorizer of a log level.
	LevelSpec struct {
		ID        int
		Name      string
		Colorizer func(a ...any) string
	}
)

// LevelSpecs maps each level to its tag and color.
var LevelSpecs = []LevelSpec{
	{Off, "", NoSprint},
	{Fatal, "FTL", color.New(color.BgRed, color.FgHiWhite).Sprint},
	{Error, "ERR", color.New(color.FgHiRed).Sprint},
	{Warn, "WRN", color.New(color.FgHiYellow).Sprint},
	{Info, "INF", color.New(color.FgHiGreen).Sprint},
	{Debug, "DBG", color.New(color.FgHiBlue).Sprint},
	{Trace, "TRC", color.New(color.FgHiMagenta).Sprint},
}

// NoSprint returns nothing no matter what is given to it.
func NoSprint(a ...any) string { return "" }

// Log is a set of printers, one per level.
type Log struct {
	F, E, W, I, D, T LevelPrinter
}

// Check is the set of per-level error checkers.
type Check struct {
	F, E, W, I, D, T Chk
}

// Errorf is the set of per-level error constructors.
type Errorf struct {
	F, E, W, I, D, T Err
}

// Logger bundles the three views of the same set of levels.
type Logger struct {
	*Log
	*Check
	*Errorf
}

var (
	// Level is the current maximum level that is printed.
	Level atomic.Int32
	// NoTimeStamp suppresses the timestamp prefix, handy in tests.
	NoTimeStamp atomic.Bool
	// Main is the logger used through the log, chk and errorf packages.
	Main = &Logger{}

	writerMx sync.Mutex
	writer   io.Writer = os.Stderr
	msgCol             = color.New(color.FgBlue).Sprint
)

func init() {
	Main.Log, Main.Check, Main.Errorf = New()
	Level.Store(Info)
}

// SetOutput swaps the destination of all log output.
func SetOutput(w io.Writer) {
	writerMx.Lock()
	writer = w
	writerMx.Unlock()
}

// SetLoggers sets the active log level by number.
func SetLoggers(level int) {
	if level < Off || level > Trace {
		level = Info
	}
	Level.Store(int32(level))
	Main.Log.T.F("log level %s", LevelSpecs[level].Colorizer(LevelNames[level]))
}

// GetLogLevel returns the number of a named log level, Info if unknown.
func GetLogLevel(level string) (i int) {
	level = strings.ToLower(strings.TrimSpace(level))
	for i = range LevelNames {
		if level == LevelNames[i] {
			return i
		}
	}
	return Info
}

// SetLogLevel sets the log level by name.
func SetLogLevel(level string) { SetLoggers(GetLogLevel(level)) }

// JoinStrings joins anything into a space separated string.
func JoinStrings(a ...any) string {
	s := make([]string, len(a))
	for i := range a {
		s[i] = fmt.Sprint(a[i])
	}
	return strings.Join(s, " ")
}

func emit(l int32, text string) {
	writerMx.Lock()
	defer writerMx.Unlock()
	_, _ = fmt.Fprintf(writer, "%s%s %s %s\n",
		msgCol(TimeStamper()),
		LevelSpecs[l].Colorizer(LevelSpecs[l].Name),
		text,
		msgCol(GetLoc(3)),
	)
}

// GetPrinter returns the printers for one level.
func GetPrinter(l int32) LevelPrinter {
	on := func() bool { return Level.Load() >= l }
	return LevelPrinter{
		Ln: func(a ...any) {
			if on() {
				emit(l, JoinStrings(a...))
			}
		},
		F: func(format string, a ...any) {
			if on() {
				emit(l, fmt.Sprintf(format, a...))
			}
		},
		S: func(a ...any) {
			if on() {
				emit(l, spew.Sdump(a...))
			}
		},
		C: func(closure func() string) {
			if on() {
				emit(l, closure())
			}
		},
		Chk: func(e error) bool {
			if e == nil {
				return false
			}
			if on() {
				emit(l, e.Error())
			}
			return true
		},
		Err: func(format string, a ...any) error {
			err := fmt.Errorf(format, a...)
			if on() {
				emit(l, err.Error())
			}
			return err
		},
	}
}

// GetNullPrinter is a printer that prints nothing but keeps the semantics
// of Chk and Err.
func GetNullPrinter() LevelPrinter {
	return LevelPrinter{
		Ln:  func(a ...any) {},
		F:   func(format string, a ...any) {},
		S:   func(a ...any) {},
		C:   func(closure func() string) {},
		Chk: func(e error) bool { return e != nil },
		Err: func(format string, a ...any) error { return fmt.Errorf(format, a...) },
	}
}

// New creates the printers, checkers and error constructors for every level.
func New() (l *Log, c *Check, errorf *Errorf) {
	l = &Log{
		T: GetPrinter(Trace),
		D: GetPrinter(Debug),
		I: GetPrinter(Info),
		W: GetPrinter(Warn),
		E: GetPrinter(Error),
		F: GetPrinter(Fatal),
	}
	c = &Check{F: l.F.Chk, E: l.E.Chk, W: l.W.Chk, I: l.I.Chk, D: l.D.Chk, T: l.T.Chk}
	errorf = &Errorf{F: l.F.Err, E: l.E.Err, W: l.W.Err, I: l.I.Err, D: l.D.Err, T: l.T.Err}
	return
}

// TimeStamper generates the timestamp for log lines.
func TimeStamper() (s string) {
	if NoTimeStamp.Load() {
		return
	}
	return time.Now().Format("2006-01-02T15:04:05.000Z07:00 ")
}

// GetLoc returns the code location of the caller skip frames up.
func GetLoc(skip int) (output string) {
	_, file, line, _ := runtime.Caller(skip)
	return fmt.Sprintf("%s:%d", file, line)
}

// GetNLoc returns n levels of code location, one per line.
func GetNLoc(n int) (output string) {
	for ; n > 1; n-- {
		output += fmt.Sprintf("%s\n", GetLoc(n))
	}
	return
}
