package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/internal/emulator"
	"github.com/jvc-remote/go-jvc/projector"
)

func startEmulator(t *testing.T, opts ...emulator.Option) *emulator.Server {
	t.Helper()

	s := emulator.New(opts...)
	require.NoError(t, s.Start("127.0.0.1:0"))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func runCLI(t *testing.T, s *emulator.Server, args ...string) (string, error) {
	t.Helper()

	base := []string{
		"-host", s.Host(),
		"-port", strconv.Itoa(s.Port()),
		"-send-delay", "10ms",
		"-connect-timeout", "1s",
		"-max-retries", "2",
		"-log-level", "error",
	}

	var stdout bytes.Buffer
	err := run(context.Background(), append(base, args...), &stdout, io.Discard)

	return stdout.String(), err
}

func TestRun_Send(t *testing.T) {
	s := startEmulator(t)

	out, err := runCLI(t, s, "send", "power-on", "power", "picture_mode")
	require.NoError(t, err)
	assert.Equal(t, "power-on: ok\npower: lamp_on\npicture_mode: 0 (unmapped)\n", out)

	_, err = runCLI(t, s, "send", "frobnicate")
	require.ErrorIs(t, err, projector.ErrUnknownCommand)

	_, err = runCLI(t, s, "send")
	require.ErrorIs(t, err, errUsage)
}

func TestRun_Power(t *testing.T) {
	s := startEmulator(t)

	_, err := runCLI(t, s, "power", "on")
	require.NoError(t, err)
	assert.Equal(t, "1", s.State(command.Power))

	out, err := runCLI(t, s, "power")
	require.NoError(t, err)
	assert.Equal(t, "power: lamp_on (on)\n", out)

	_, err = runCLI(t, s, "power", "off")
	require.NoError(t, err)
	assert.Equal(t, "0", s.State(command.Power))

	_, err = runCLI(t, s, "power", "maybe")
	require.ErrorIs(t, err, errUsage)
}

func TestRun_StateAndValidate(t *testing.T) {
	s := startEmulator(t)

	out, err := runCLI(t, s, "state")
	require.NoError(t, err)
	assert.Contains(t, out, "power: standby (off)")
	assert.Contains(t, out, "model: ILAFPJ -- B5A2")
	assert.Contains(t, out, "mac:   E0DADC0A1B2C")

	out, err = runCLI(t, s, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "reachable")
}

func TestRun_List(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"list"}, &stdout, io.Discard))

	out := stdout.String()
	assert.Contains(t, out, "COMMAND")
	assert.Contains(t, out, "picture_mode")
	assert.Contains(t, out, "hdmi1,hdmi2")
}

func lensTable(t *testing.T) *command.Table {
	t.Helper()

	lens, err := command.NewGroup("lens_memory", "INML", command.WithValues(map[string]string{"1": "0", "2": "1"}))
	require.NoError(t, err)
	table, err := command.NewTable(lens)
	require.NoError(t, err)

	return table
}

func TestCmdList_Table(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, cmdList(lensTable(t), &stdout))

	out := stdout.String()
	assert.Contains(t, out, "lens_memory")
	assert.NotContains(t, out, "picture_mode")
}

func TestCompleter_Table(t *testing.T) {
	var names []string
	for _, item := range completer(lensTable(t)).GetChildren() {
		names = append(names, strings.TrimSpace(string(item.GetName())))
	}

	assert.Equal(t, []string{"lens_memory", "lens_memory-1", "lens_memory-2", "help", "stats", "exit"}, names)
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.ErrorIs(t, run(context.Background(), nil, &stdout, &stderr), errUsage)
	assert.Contains(t, stderr.String(), "usage: jvcctl")

	require.Error(t, run(context.Background(), []string{"power"}, &stdout, &stderr), "missing host")
	require.Error(t, run(context.Background(), []string{"-max-retries", "0", "-host", "10.0.0.1", "power"}, &stdout, &stderr))

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "jvcctl v")
}

func TestRun_ConfigFile(t *testing.T) {
	s := startEmulator(t, emulator.WithPassword("secret12"))

	path := filepath.Join(t.TempDir(), "jvc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("password: secret12\nsend_delay: 10ms\n"), 0o600))

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-config", path,
		"-host", s.Host(),
		"-port", strconv.Itoa(s.Port()),
		"power", "on",
	}, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "1", s.State(command.Power))
}

func TestRun_Emulate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	var stdout bytes.Buffer
	require.NoError(t, run(ctx, []string{"-port", strconv.Itoa(port), "-log-level", "error", "emulate"}, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "emulating projector on 127.0.0.1:")
}

func TestShellLoop(t *testing.T) {
	s := startEmulator(t)
	p, err := projector.Dial(s.Host(),
		projector.WithPort(s.Port()),
		projector.WithSendDelay(10*time.Millisecond))
	require.NoError(t, err)
	defer p.Close()

	lines := []string{"", "help", "power-on power", "frobnicate", "stats", "exit", "power-off"}
	readLine := func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		if line == "" {
			return "", readline.ErrInterrupt
		}

		return line, nil
	}

	var out bytes.Buffer
	require.NoError(t, shellLoop(context.Background(), p, readLine, &out))

	assert.Contains(t, out.String(), "power-on: ok\npower: lamp_on\n")
	assert.Contains(t, out.String(), "error: command: unknown command")
	assert.Contains(t, out.String(), "CommandSendCount:2")
	assert.Equal(t, []string{"power-off"}, lines, "exit stops reading")
	assert.Equal(t, "1", s.State(command.Power))
}
