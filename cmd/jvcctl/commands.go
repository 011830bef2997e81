package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/internal/app"
	"github.com/jvc-remote/go-jvc/internal/emulator"
	"github.com/jvc-remote/go-jvc/logger"
	"github.com/jvc-remote/go-jvc/projector"
)

func printResponse(w io.Writer, resp *projector.Response) {
	switch {
	case resp.Kind == projector.ReplyInfo && !resp.Mapped:
		fmt.Fprintf(w, "%s: %s (unmapped)\n", resp.Request.Symbolic, resp.Value)
	case resp.Kind == projector.ReplyInfo:
		fmt.Fprintf(w, "%s: %s\n", resp.Request.Symbolic, resp.Value)
	default:
		fmt.Fprintf(w, "%s: ok\n", resp.Request.Symbolic)
	}
}

func cmdSend(ctx context.Context, p *projector.Projector, cmds []string, stdout io.Writer) error {
	if len(cmds) == 0 {
		return fmt.Errorf("%w: send needs at least one command", errUsage)
	}

	for _, cmd := range cmds {
		resp, err := p.Send(ctx, cmd)
		if err != nil {
			return err
		}
		printResponse(stdout, resp)
	}

	return nil
}

func cmdPower(ctx context.Context, p *projector.Projector, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		st, err := p.PowerState(ctx)
		if err != nil {
			return err
		}
		on, _ := st.OnState()
		fmt.Fprintf(stdout, "power: %s (%s)\n", st, on)

		return nil
	}

	switch args[0] {
	case "on":
		return p.PowerOn(ctx)
	case "off":
		return p.PowerOff(ctx)
	default:
		return fmt.Errorf("%w: power takes on or off, got %q", errUsage, args[0])
	}
}

func cmdState(ctx context.Context, p *projector.Projector, stdout io.Writer) error {
	st, err := p.PowerState(ctx)
	if err != nil {
		return err
	}
	model, err := p.Model(ctx)
	if err != nil {
		return err
	}
	mac, err := p.MACAddress(ctx)
	if err != nil {
		return err
	}

	on, _ := st.OnState()
	fmt.Fprintf(stdout, "power: %s (%s)\nmodel: %s\nmac:   %s\n", st, on, model, mac)

	return nil
}

func cmdValidate(ctx context.Context, p *projector.Projector, stdout io.Writer) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: reachable\n", p.Config().Addr())

	return nil
}

func cmdList(table *command.Table, stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tACCESS\tWRITE VALUES\tREAD VALUES")
	for _, g := range table.Groups() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Name, g.Access(),
			orDash(strings.Join(g.WriteValues(), ",")),
			orDash(strings.Join(g.ReadValues(), ",")))
	}

	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func cmdEmulate(ctx context.Context, opts *app.Options, l logger.Logger, stdout io.Writer) error {
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}

	emuOpts := []emulator.Option{emulator.WithLogger(l)}
	if opts.Password != "" {
		emuOpts = append(emuOpts, emulator.WithPassword(opts.Password))
	}

	s := emulator.New(emuOpts...)
	if err := s.Start(fmt.Sprintf("%s:%d", host, opts.Port)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "emulating projector on %s\n", s.Addr())

	<-ctx.Done()

	return s.Close()
}
