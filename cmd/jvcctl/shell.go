package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/projector"
)

// completer offers every symbolic command of table.
func completer(table *command.Table) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, g := range table.Groups() {
		if g.Access().CanRead() || !g.HasWriteValues() {
			items = append(items, readline.PcItem(g.Name))
		}
		for _, v := range g.WriteValues() {
			items = append(items, readline.PcItem(g.Name+command.Separator+v))
		}
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("stats"), readline.PcItem("exit"))

	return readline.NewPrefixCompleter(items...)
}

func cmdShell(ctx context.Context, p *projector.Projector, stdout io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "jvc> ",
		AutoComplete:    completer(p.Config().Table()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	return shellLoop(ctx, p, rl.Readline, rl.Stdout())
}

// shellLoop runs commands read by readLine until EOF, exit or ctx is done.
func shellLoop(ctx context.Context, p *projector.Projector, readLine func() (string, error), out io.Writer) error {
	fmt.Fprintf(out, "connected to %s, type help for commands\n", p.Config().Addr())

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := readLine()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(out, "enter a symbolic command such as power, power-on or picture_mode-user1;")
			fmt.Fprintln(out, "stats prints connection counters, exit leaves the shell")
			continue
		case "stats":
			fmt.Fprintf(out, "%+v\n", p.GetMetrics().Snapshot())
			continue
		}

		for _, cmd := range strings.Fields(input) {
			resp, err := p.Send(ctx, cmd)
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", err)
				break
			}
			printResponse(out, resp)
		}
	}
}
