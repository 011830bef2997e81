package projector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/logger"
)

// Default values.
const (
	DefaultPort           = 20554
	DefaultConnectTimeout = 10 * time.Second
	DefaultWriteTimeout   = 3 * time.Second
	DefaultSendDelay      = 600 * time.Millisecond
	DefaultMaxRetries     = 10
)

// Limits accepted by the options.
const (
	MaxTimeout    = 2 * time.Minute
	MaxSendDelay  = 10 * time.Second
	MaxMaxRetries = 100
)

// Dialer opens the TCP connection to the projector. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ConnectionConfig holds the configuration of a Projector. It is immutable
// once built.
type ConnectionConfig struct {
	host     string
	port     int
	password string

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	// sendDelay is the minimum spacing between the end of one exchange and
	// the start of the next, and the wait between retry attempts.
	sendDelay time.Duration
	// maxRetries is the total number of attempts made for one command.
	maxRetries int

	// persistent keeps the negotiated connection open between commands.
	persistent bool

	dialer Dialer
	table  *command.Table
	logger logger.Logger
}

// NewConnectionConfig creates the configuration for the projector at host.
// opts are applied in order; see the With* functions.
func NewConnectionConfig(host string, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		port:           DefaultPort,
		connectTimeout: DefaultConnectTimeout,
		writeTimeout:   DefaultWriteTimeout,
		sendDelay:      DefaultSendDelay,
		maxRetries:     DefaultMaxRetries,
		dialer:         &net.Dialer{KeepAlive: 30 * time.Second},
		table:          command.DefaultTable(),
		logger:         logger.GetLogger(),
	}

	if err := cfg.setHost(host); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.readTimeout == 0 {
		cfg.readTimeout = cfg.connectTimeout
	}

	return cfg, nil
}

// setHost accepts an IP address or a syntactically valid host name. Names are
// not resolved here; projectors are often only resolvable once powered.
func (cfg *ConnectionConfig) setHost(host string) error {
	host = strings.TrimSpace(host)
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		cfg.host = ip.String()
		return nil
	}

	host = strings.TrimSuffix(host, ".")
	if host == "" || len(host) > 253 {
		return fmt.Errorf("jvc: invalid host %q", host)
	}
	for _, label := range strings.Split(host, ".") {
		if !validLabel(label) {
			return fmt.Errorf("jvc: invalid host %q", host)
		}
	}
	cfg.host = host

	return nil
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}

	return true
}

// Host returns the projector host.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the projector TCP port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// Addr returns "host:port".
func (cfg *ConnectionConfig) Addr() string {
	return net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
}

// HasPassword reports whether a network password is configured.
func (cfg *ConnectionConfig) HasPassword() bool { return cfg.password != "" }

// ConnectTimeout returns the TCP dial and handshake timeout.
func (cfg *ConnectionConfig) ConnectTimeout() time.Duration { return cfg.connectTimeout }

// ReadTimeout returns how long a reply frame is awaited.
func (cfg *ConnectionConfig) ReadTimeout() time.Duration { return cfg.readTimeout }

// WriteTimeout returns the deadline for writing one frame.
func (cfg *ConnectionConfig) WriteTimeout() time.Duration { return cfg.writeTimeout }

// SendDelay returns the minimum spacing between exchanges.
func (cfg *ConnectionConfig) SendDelay() time.Duration { return cfg.sendDelay }

// MaxRetries returns the number of attempts made for one command.
func (cfg *ConnectionConfig) MaxRetries() int { return cfg.maxRetries }

// Persistent reports whether the connection is kept open between commands.
func (cfg *ConnectionConfig) Persistent() bool { return cfg.persistent }

// Table returns the command table.
func (cfg *ConnectionConfig) Table() *command.Table { return cfg.table }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithPort sets the TCP port. Default is 20554.
func WithPort(port int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if port < 1 || port > 65535 {
			return fmt.Errorf("jvc: port %d out of range [1, 65535]", port)
		}
		cfg.port = port

		return nil
	})
}

// WithPassword sets the network password configured on the projector.
// It must be 8 to 10 printable ASCII characters. An empty password disables
// authentication.
func WithPassword(password string) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if password != "" {
			if err := command.ValidatePassword(password); err != nil {
				return fmt.Errorf("jvc: invalid password: %w", err)
			}
		}
		cfg.password = password

		return nil
	})
}

// WithConnectTimeout sets the timeout for the TCP dial and for each handshake read.
func WithConnectTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 || d > MaxTimeout {
			return fmt.Errorf("jvc: connect timeout %v out of range (0, %v]", d, MaxTimeout)
		}
		cfg.connectTimeout = d

		return nil
	})
}

// WithReadTimeout sets how long a reply frame is awaited. It defaults to the
// connect timeout.
func WithReadTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 || d > MaxTimeout {
			return fmt.Errorf("jvc: read timeout %v out of range (0, %v]", d, MaxTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the deadline for writing one frame.
func WithWriteTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 || d > MaxTimeout {
			return fmt.Errorf("jvc: write timeout %v out of range (0, %v]", d, MaxTimeout)
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithSendDelay sets the minimum spacing between exchanges and between retry
// attempts. Zero disables throttling.
func WithSendDelay(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 || d > MaxSendDelay {
			return fmt.Errorf("jvc: send delay %v out of range [0, %v]", d, MaxSendDelay)
		}
		cfg.sendDelay = d

		return nil
	})
}

// WithMaxRetries sets the total number of attempts made for one command.
func WithMaxRetries(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 1 || n > MaxMaxRetries {
			return fmt.Errorf("jvc: max retries %d out of range [1, %d]", n, MaxMaxRetries)
		}
		cfg.maxRetries = n

		return nil
	})
}

// WithPersistentConnection keeps the negotiated connection open between
// commands instead of reconnecting for every command.
func WithPersistentConnection(enabled bool) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.persistent = enabled

		return nil
	})
}

// WithDialer replaces the dialer used to open connections.
func WithDialer(d Dialer) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d == nil {
			return errors.New("jvc: dialer must not be nil")
		}
		cfg.dialer = d

		return nil
	})
}

// WithCommandTable replaces the command table, for models with extra groups.
func WithCommandTable(t *command.Table) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if t == nil {
			return errors.New("jvc: command table must not be nil")
		}
		cfg.table = t

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("jvc: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
