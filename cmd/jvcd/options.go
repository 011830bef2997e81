package main

import (
	"flag"

	"github.com/jvc-remote/go-jvc/internal/app"
)

// Options configures the daemon. Conn holds the settings applied to every
// projector it talks to. Conn.Host is not used: the daemon only serves the
// hosts listed in Projectors.
type Options struct {
	HTTPAddress string   `flag:"http-address"`
	Projectors  []string `flag:"projector"`

	Conn *app.Options
}

func NewOptions() *Options {
	return &Options{
		HTTPAddress: "0.0.0.0:20580",
		Conn:        app.NewOptions(),
	}
}

func jvcdFlagSet(opts *Options) *flag.FlagSet {
	flagSet := flag.NewFlagSet("jvcd", flag.ExitOnError)

	app.AddFlags(flagSet, opts.Conn)
	flagSet.String("http-address", opts.HTTPAddress, "<addr>:<port> to listen on for HTTP clients")

	projectors := app.StringArray{}
	flagSet.Var(&projectors, "projector", "projector host to control (may be given multiple times)")

	return flagSet
}
