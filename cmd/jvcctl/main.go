package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mreiferson/go-options"

	"github.com/jvc-remote/go-jvc/internal/app"
	"github.com/jvc-remote/go-jvc/projector"
)

const usage = `usage: jvcctl [flags] <command> [args]

commands:
  send <cmd>...     send symbolic commands, e.g. power-on, input-hdmi1, signal
  power [on|off]    print the power state, or switch the projector on or off
  state             print power state, model and MAC address
  list              list the known commands and values
  validate          check that the projector accepts connections
  shell             interactive command prompt
  emulate           run a projector emulator on -host:-port

flags:
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "jvcctl: %s\n", err)
		}
		os.Exit(1)
	}
}

func jvcctlFlagSet(opts *app.Options, stderr io.Writer) *flag.FlagSet {
	flagSet := flag.NewFlagSet("jvcctl", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(stderr, usage)
		flagSet.PrintDefaults()
	}

	app.AddFlags(flagSet, opts)

	return flagSet
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := app.NewOptions()
	flagSet := jvcctlFlagSet(opts, stderr)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if flagSet.Lookup("version").Value.(flag.Getter).Get().(bool) {
		fmt.Fprintln(stdout, app.VersionString("jvcctl"))
		return nil
	}

	cfg, err := app.LoadConfig(flagSet.Lookup("config").Value.String())
	if err != nil {
		return err
	}
	options.Resolve(opts, flagSet, cfg)

	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return errUsage
	}
	sub, subArgs := rest[0], rest[1:]

	needHost := sub != "list" && sub != "emulate"
	if err := opts.Validate(needHost); err != nil {
		return err
	}
	l := opts.SetupLogger(stderr)

	switch sub {
	case "list":
		// the table comes from the connection settings; no host is contacted
		cfg, err := projector.NewConnectionConfig("localhost", opts.ConnOptions(l)...)
		if err != nil {
			return err
		}

		return cmdList(cfg.Table(), stdout)
	case "emulate":
		return cmdEmulate(ctx, opts, l, stdout)
	}

	p, err := projector.Dial(opts.Host, opts.ConnOptions(l)...)
	if err != nil {
		return err
	}
	defer p.Close()

	switch sub {
	case "send":
		return cmdSend(ctx, p, subArgs, stdout)
	case "power":
		return cmdPower(ctx, p, subArgs, stdout)
	case "state":
		return cmdState(ctx, p, stdout)
	case "validate":
		return cmdValidate(ctx, p, stdout)
	case "shell":
		return cmdShell(ctx, p, stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", sub)
		flagSet.Usage()

		return errUsage
	}
}
