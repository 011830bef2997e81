// Package app holds the flag, config file and option plumbing shared by the
// jvcctl and jvcd binaries.
package app

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/jvc-remote/go-jvc/logger"
	"github.com/jvc-remote/go-jvc/projector"
)

// Options are the projector connection settings common to every binary.
// Each field is resolved from, in order of precedence, its command line flag,
// the config file key (the flag name with dashes replaced by underscores)
// and the default.
type Options struct {
	Host           string        `flag:"host"`
	Port           int           `flag:"port"`
	Password       string        `flag:"password"`
	ConnectTimeout time.Duration `flag:"connect-timeout"`
	ReadTimeout    time.Duration `flag:"read-timeout"`
	SendDelay      time.Duration `flag:"send-delay"`
	MaxRetries     int           `flag:"max-retries"`
	Persistent     bool          `flag:"persistent"`
	LogLevel       string        `flag:"log-level"`
}

// NewOptions returns Options holding the library defaults.
func NewOptions() *Options {
	return &Options{
		Port:           projector.DefaultPort,
		ConnectTimeout: projector.DefaultConnectTimeout,
		SendDelay:      projector.DefaultSendDelay,
		MaxRetries:     projector.DefaultMaxRetries,
		LogLevel:       "info",
	}
}

// AddFlags registers the connection flags on flagSet, with defaults from opts.
func AddFlags(flagSet *flag.FlagSet, opts *Options) {
	flagSet.String("config", "", "path to config file (.toml, .yaml or .yml)")
	flagSet.Bool("version", false, "print version string")

	flagSet.String("host", opts.Host, "projector host name or IP address")
	flagSet.Int("port", opts.Port, "projector TCP port")
	flagSet.String("password", opts.Password, "projector network password (8 to 10 characters, empty for none)")
	flagSet.Duration("connect-timeout", opts.ConnectTimeout, "timeout for connecting and for each handshake step")
	flagSet.Duration("read-timeout", opts.ReadTimeout, "timeout for each reply (0 uses -connect-timeout)")
	flagSet.Duration("send-delay", opts.SendDelay, "minimum delay between commands and between retries")
	flagSet.Int("max-retries", opts.MaxRetries, "attempts per command before giving up")
	flagSet.Bool("persistent", opts.Persistent, "keep the projector session open between commands")
	flagSet.String("log-level", opts.LogLevel, "log level (debug, info, warn, error)")
}

// ConnOptions converts opts into projector options.
func (opts *Options) ConnOptions(l logger.Logger) []projector.ConnOption {
	connOpts := []projector.ConnOption{
		projector.WithPort(opts.Port),
		projector.WithPassword(opts.Password),
		projector.WithConnectTimeout(opts.ConnectTimeout),
		projector.WithSendDelay(opts.SendDelay),
		projector.WithMaxRetries(opts.MaxRetries),
		projector.WithPersistentConnection(opts.Persistent),
	}
	if opts.ReadTimeout > 0 {
		connOpts = append(connOpts, projector.WithReadTimeout(opts.ReadTimeout))
	}
	if l != nil {
		connOpts = append(connOpts, projector.WithLogger(l))
	}

	return connOpts
}

// Validate checks the settings that the projector options cannot check on
// their own.
func (opts *Options) Validate(needHost bool) error {
	if needHost && opts.Host == "" {
		return fmt.Errorf("missing -host")
	}
	if _, err := logger.ParseLevel(opts.LogLevel); err != nil {
		return err
	}
	// dry run, so that bad values surface before any command
	if _, err := projector.NewConnectionConfig("localhost", opts.ConnOptions(nil)...); err != nil {
		return err
	}

	return nil
}

// SetupLogger applies the log level to the default logger and returns it.
// With a non-nil w the default logger is replaced by a console logger
// writing to w.
func (opts *Options) SetupLogger(w io.Writer) logger.Logger {
	level, err := logger.ParseLevel(opts.LogLevel)
	if err != nil {
		level = logger.InfoLevel
	}

	if w != nil {
		logger.SetLogger(logger.NewSlogWriter(w, level, false, true))
	} else {
		logger.SetLevel(level)
	}

	return logger.GetLogger()
}
