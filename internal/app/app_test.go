package app

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mreiferson/go-options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvc-remote/go-jvc/projector"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func resolve(t *testing.T, args []string, cfg Config) *Options {
	t.Helper()

	opts := NewOptions()
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	AddFlags(flagSet, opts)
	require.NoError(t, flagSet.Parse(args))

	options.Resolve(opts, flagSet, cfg)

	return opts
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "jvc.toml", `
host = "10.0.0.20"
port = 20555
send_delay = "1s"
max-retries = 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	opts := resolve(t, []string{"-port", "20556"}, cfg)
	assert.Equal(t, "10.0.0.20", opts.Host)
	assert.Equal(t, 20556, opts.Port, "flags win over the config file")
	assert.Equal(t, time.Second, opts.SendDelay)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, projector.DefaultConnectTimeout, opts.ConnectTimeout)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "jvc.yaml", `
host: projector.local
password: secret12
connect_timeout: 2s
persistent: true
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	opts := resolve(t, nil, cfg)
	assert.Equal(t, "projector.local", opts.Host)
	assert.Equal(t, "secret12", opts.Password)
	assert.Equal(t, 2*time.Second, opts.ConnectTimeout)
	assert.True(t, opts.Persistent)
	assert.Equal(t, "debug", opts.LogLevel)
	require.NoError(t, opts.Validate(true))

	cfgConn, err := projector.NewConnectionConfig(opts.Host, opts.ConnOptions(nil)...)
	require.NoError(t, err)
	assert.True(t, cfgConn.HasPassword())
	assert.True(t, cfgConn.Persistent())
	assert.Equal(t, 2*time.Second, cfgConn.ReadTimeout())
}

func TestLoadConfig_Errors(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg)

	_, err = LoadConfig(writeFile(t, "jvc.json", "{}"))
	require.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.toml", "host = "))
	require.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	opts := NewOptions()
	require.Error(t, opts.Validate(true))
	require.NoError(t, opts.Validate(false))

	opts.Host = "10.0.0.1"
	opts.MaxRetries = 0
	require.Error(t, opts.Validate(true))

	opts = NewOptions()
	opts.LogLevel = "chatty"
	require.Error(t, opts.Validate(false))

	opts = NewOptions()
	opts.Password = "short"
	require.Error(t, opts.Validate(false))
}

func TestVersionString(t *testing.T) {
	assert.Contains(t, VersionString("jvcctl"), "jvcctl v"+Binary)
}

func TestStringArray(t *testing.T) {
	var hosts StringArray
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	flagSet.Var(&hosts, "projector", "")

	require.NoError(t, flagSet.Parse([]string{"-projector", "10.0.0.5", "-projector", "den.local"}))
	assert.Equal(t, StringArray{"10.0.0.5", "den.local"}, hosts)
	assert.Equal(t, "10.0.0.5,den.local", hosts.String())
}
