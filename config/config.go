// Package config loads the client configuration from the environment and
// from a .env file in the profile directory.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-simpler.org/env"

	"nostrly.lol/appdata"
	"nostrly.lol/chk"
	"nostrly.lol/client"
	"nostrly.lol/keys"
	"nostrly.lol/signer"
	"nostrly.lol/ws"
)

// C is the configuration of a nostrly client.
type C struct {
	AppName           string        `env:"APP_NAME" default:"nostrly"`
	Profile           string        `env:"PROFILE" usage:"directory holding the .env file (default is based on APP_NAME and OS specific location)"`
	LogLevel          string        `env:"LOG_LEVEL" default:"info" usage:"debug level: fatal error warn info debug trace"`
	Relays            []string      `env:"RELAYS" usage:"comma separated list of relay URLs"`
	SecretKey         string        `env:"SECRET_KEY" usage:"secret key in hex or nsec format used to sign events"`
	SendTimeout       time.Duration `env:"SEND_TIMEOUT" default:"20s" usage:"how long to wait for relays to answer a published event"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT" default:"10s" usage:"how long one attempt to connect to a relay may take"`
	WaitForConnection bool          `env:"WAIT_FOR_CONNECTION" default:"true" usage:"wait for every relay to be tried before doing anything"`
	BackoffInitial    time.Duration `env:"BACKOFF_INITIAL" default:"1s" usage:"wait before the first reconnection attempt"`
	BackoffMax        time.Duration `env:"BACKOFF_MAX" default:"1m" usage:"longest wait between reconnection attempts"`
	BackoffMultiplier float64       `env:"BACKOFF_MULTIPLIER" default:"1.7" usage:"growth of the wait after each failed reconnection"`
	BackoffMaxRetries int           `env:"BACKOFF_MAX_RETRIES" default:"0" usage:"reconnection attempts before giving up on a relay, 0 is forever"`
	MaxRelays         int           `env:"MAX_RELAYS" default:"0" usage:"maximum number of relays, 0 is unlimited"`
	SkipDisconnected  bool          `env:"SKIP_DISCONNECTED" default:"false" usage:"leave disconnected relays out of publish results"`
	DedupCacheSize    int           `env:"DEDUP_CACHE_SIZE" default:"4096" usage:"number of event ids remembered to drop duplicates"`
	WriteRate         float64       `env:"WRITE_RATE" default:"0" usage:"messages per second per relay, 0 is unlimited"`
	Difficulty        int           `env:"DIFFICULTY" default:"0" usage:"proof of work applied to published events"`
	AutoAuth          bool          `env:"AUTO_AUTH" default:"false" usage:"answer NIP-42 auth challenges with SECRET_KEY"`
	Pprof             bool          `env:"PPROF" default:"false" usage:"write a CPU profile to the profile directory"`
}

// New reads the environment, then the .env file of the profile, with the
// environment taking precedence.
func New() (cfg *C, err error) {
	cfg = &C{}
	if err = env.Load(cfg, &env.Options{SliceSep: ","}); chk.T(err) {
		return
	}
	if cfg.Profile == "" {
		cfg.Profile = appdata.Dir(cfg.AppName, true)
	}
	envPath := filepath.Join(cfg.Profile, ".env")
	if !FileExists(envPath) {
		return
	}
	var e Env
	if e, err = ReadEnvFile(envPath); chk.T(err) {
		return
	}
	profile := cfg.Profile
	if err = env.Load(cfg, &env.Options{Source: e.Under(OSEnv()), SliceSep: ","}); chk.E(err) {
		return
	}
	if cfg.Profile == "" {
		cfg.Profile = profile
	}
	return
}

// FileExists reports whether path is there and is not a directory.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// HelpRequested returns true if any of the common types of help invocation are
// found as the first command line parameter/flag.
func HelpRequested() (help bool) {
	if len(os.Args) > 1 {
		switch strings.ToLower(os.Args[1]) {
		case "help", "-h", "--h", "-help", "--help", "?":
			help = true
		}
	}
	return
}

// GetEnv returns true if the first command line parameter is 'env'.
func GetEnv() (requested bool) {
	return len(os.Args) > 1 && strings.ToLower(os.Args[1]) == "env"
}

// PrintEnv writes the configuration as a .env file.
func PrintEnv(cfg *C, printer io.Writer) {
	for _, v := range EnvKV(*cfg) {
		_, _ = fmt.Fprintf(printer, "%s=%s\n", v.Key, v.Value)
	}
}

// PrintHelp outputs a help text listing the configuration options and default
// values to a provided io.Writer (usually os.Stderr or os.Stdout).
func PrintHelp(cfg *C, printer io.Writer) {
	_, _ = fmt.Fprintf(printer,
		"Environment variables that configure %s:\n\n", cfg.AppName)
	env.Usage(cfg, printer, &env.Options{SliceSep: ","})
	_, _ = fmt.Fprintf(printer,
		"\n.env file found at the PROFILE path will be automatically loaded for "+
			"configuration.\nthe environment overrides it.\n\n"+
			"use the parameter 'env' to print out the current configuration\n\n"+
			"\t%s env >%s/.env\n\n", os.Args[0], cfg.Profile)
}

// Signer returns the signer of SECRET_KEY, nil if it is not set.
func (cfg *C) Signer() (s signer.I, err error) {
	if cfg.SecretKey == "" {
		return
	}
	return keys.ParseSecret(cfg.SecretKey)
}

// Backoff is the relay reconnection schedule.
func (cfg *C) Backoff() ws.Backoff {
	return ws.Backoff{
		Initial:    cfg.BackoffInitial,
		Max:        cfg.BackoffMax,
		Multiplier: cfg.BackoffMultiplier,
		MaxRetries: cfg.BackoffMaxRetries,
	}
}

// ClientOptions converts the configuration into client options.
func (cfg *C) ClientOptions() []client.Option {
	return []client.Option{
		client.WithSendTimeout(cfg.SendTimeout),
		client.WithConnectTimeout(cfg.ConnectTimeout),
		client.WaitForConnection(cfg.WaitForConnection),
		client.SkipDisconnected(cfg.SkipDisconnected),
		client.WithMaxRelays(cfg.MaxRelays),
		client.WithDedupCacheSize(cfg.DedupCacheSize),
		client.WithDifficulty(cfg.Difficulty),
		client.WithBackoff(cfg.Backoff()),
		client.WithWriteRate(cfg.WriteRate),
		client.WithAutoAuth(cfg.AutoAuth),
	}
}
