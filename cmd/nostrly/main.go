// Package main is nostrly, a command line nostr client: it generates keys,
// publishes events to a set of relays, queries them, verifies events and
// fetches relay information documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/pkg/profile"

	"nostrly.lol/chk"
	"nostrly.lol/client"
	"nostrly.lol/config"
	"nostrly.lol/context"
	"nostrly.lol/interrupt"
	"nostrly.lol/log"
	"nostrly.lol/lol"
)

type Args struct {
	Generate *GenerateCmd `arg:"subcommand:generate" help:"create a new key pair"`
	Publish  *PublishCmd  `arg:"subcommand:publish" help:"sign an event and send it to the relays"`
	Req      *ReqCmd      `arg:"subcommand:req" help:"query the relays and print the events received"`
	Verify   *VerifyCmd   `arg:"subcommand:verify" help:"check the ids and signatures of events read from stdin"`
	Info     *InfoCmd     `arg:"subcommand:info" help:"fetch the NIP-11 information document of a relay"`
}

func (Args) Description() string {
	return "nostrly is a nostr client. it is configured by environment variables, " +
		"run 'nostrly help' to list them."
}

func main() {
	cfg, err := config.New()
	if chk.T(err) {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %s\n", err)
		os.Exit(1)
	}
	if config.GetEnv() {
		config.PrintEnv(cfg, os.Stdout)
		os.Exit(0)
	}
	var args Args
	p, err := arg.NewParser(arg.Config{Program: "nostrly"}, &args)
	if chk.E(err) {
		os.Exit(1)
	}
	if config.HelpRequested() {
		p.WriteHelp(os.Stderr)
		fmt.Fprintln(os.Stderr)
		config.PrintHelp(cfg, os.Stderr)
		os.Exit(0)
	}
	if err = p.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			p.WriteHelpForSubcommand(os.Stderr, p.SubcommandNames()...)
			os.Exit(0)
		}
		p.Fail(err.Error())
	}
	lol.SetLogLevel(cfg.LogLevel)
	if cfg.Pprof {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Profile)).Stop()
	}
	c, cancel := context.Cancel(context.Bg())
	interrupt.AddHandler(cancel)
	var cmd interface {
		Run(context.T, *config.C) error
	}
	switch {
	case args.Generate != nil:
		cmd = args.Generate
	case args.Publish != nil:
		cmd = args.Publish
	case args.Req != nil:
		cmd = args.Req
	case args.Verify != nil:
		cmd = args.Verify
	case args.Info != nil:
		cmd = args.Info
	default:
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	err = cmd.Run(c, cfg)
	cancel()
	if err != nil {
		log.E.F("%s", err)
		os.Exit(1)
	}
}

// connect creates a client on the relays given on the command line, or on
// RELAYS when there are none, and connects to them.
func connect(c context.T, cfg *config.C, relays []string, opts ...client.Option) (
	cl *client.Client, err error) {
	s, err := cfg.Signer()
	if err != nil {
		return nil, fmt.Errorf("SECRET_KEY: %w", err)
	}
	cl = client.New(s, append(cfg.ClientOptions(), opts...)...)
	if len(relays) == 0 {
		relays = cfg.Relays
	}
	if len(relays) == 0 {
		return nil, errors.New("no relays given, set RELAYS or use --relay")
	}
	for _, u := range relays {
		if _, err = cl.AddRelay(u); err != nil {
			chk.E(cl.Shutdown())
			return nil, err
		}
	}
	if err = cl.Connect(c); chk.D(err) {
		log.W.F("not every relay could be reached: %s", err)
		err = nil
	}
	return
}
