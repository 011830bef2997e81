package projector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/internal/timerpool"
	"github.com/jvc-remote/go-jvc/logger"
)

// Projector is a control session with one JVC projector.
//
// It owns at most one transport at a time. Every command fully owns the
// transport from parse to classified reply, including retries: concurrent
// callers are serialized, since the protocol has no request correlation.
//
// Close may be called from any goroutine; it unblocks a pending exchange.
type Projector struct {
	cfg    *ConnectionConfig
	table  *command.Table
	logger logger.Logger

	// mu serializes exchanges and guards lastExchange.
	mu           sync.Mutex
	lastExchange time.Time

	connMutex sync.Mutex
	tr        *transport
	state     atomicConnState

	closed  atomic.Bool
	metrics ConnectionMetrics
}

// New creates a Projector from cfg. No connection is made until the first
// command or Open.
func New(cfg *ConnectionConfig) (*Projector, error) {
	if cfg == nil {
		return nil, errors.New("jvc: connection config is nil")
	}

	return &Projector{
		cfg:    cfg,
		table:  cfg.table,
		logger: cfg.logger.With("addr", cfg.Addr()),
	}, nil
}

// Dial is a shorthand for NewConnectionConfig followed by New.
func Dial(host string, opts ...ConnOption) (*Projector, error) {
	cfg, err := NewConnectionConfig(host, opts...)
	if err != nil {
		return nil, err
	}

	return New(cfg)
}

// Config returns the projector configuration.
func (p *Projector) Config() *ConnectionConfig { return p.cfg }

// GetLogger returns the logger associated with the projector.
func (p *Projector) GetLogger() logger.Logger { return p.logger }

// GetMetrics returns the metrics associated with the projector.
func (p *Projector) GetMetrics() *ConnectionMetrics { return &p.metrics }

// State returns the current connection state.
func (p *Projector) State() ConnState { return p.state.Get() }

// Command sends a symbolic command and returns the decoded value: the state
// name for reads, an empty string for writes.
func (p *Projector) Command(ctx context.Context, symbolic string) (string, error) {
	resp, err := p.Send(ctx, symbolic)
	if err != nil {
		return "", err
	}

	return resp.Value, nil
}

// Send parses symbolic against the command table and performs the exchange.
//
// Unknown groups and direction mismatches fail before any network I/O.
// Refused connections and read timeouts are retried up to MaxRetries attempts;
// when all attempts fail the error is a *CommandFailedError.
func (p *Projector) Send(ctx context.Context, symbolic string) (*Response, error) {
	req, err := p.table.Parse(symbolic)
	if err != nil {
		p.metrics.incCommandErrCount()
		p.logger.Debug("jvc: rejected command", "command", symbolic, "error", err)

		return nil, err
	}

	return p.Do(ctx, req)
}

// Do performs the exchange for an already parsed request.
func (p *Projector) Do(ctx context.Context, req command.Request) (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil, ErrProjectorClosed
	}

	l := p.logger.With("exchange", uuid.NewString(), "command", req.Symbolic)

	var (
		resp    *Response
		lastErr error
	)
	attempts, err := p.retryPolicy(l).Do(ctx, func(int) error {
		r, err := p.attempt(ctx, req, l)
		if err != nil {
			lastErr = err
			return err
		}
		resp = r

		return nil
	})
	if err != nil {
		p.metrics.incCommandErrCount()

		if errors.Is(err, ErrRetryExhausted) {
			err = &CommandFailedError{Command: req.Symbolic, Attempts: attempts, Cause: lastErr}
		}
		l.Error("jvc: command failed", "attempts", attempts, "error", err)

		return nil, err
	}

	p.metrics.incCommandSendCount()
	l.Debug("jvc: command complete", "attempts", attempts, "kind", resp.Kind, "value", resp.Value)

	return resp, nil
}

// Open connects and negotiates eagerly, with the same retry policy as
// commands. Without a persistent connection the negotiated session is used by
// the next command and closed after it.
func (p *Projector) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return ErrProjectorClosed
	}

	var lastErr error
	attempts, err := p.retryPolicy(p.logger).Do(ctx, func(int) error {
		if err := p.throttle(ctx); err != nil {
			return err
		}
		_, _, err := p.ensureNegotiated(ctx)
		lastErr = err

		return err
	})
	if errors.Is(err, ErrRetryExhausted) {
		return &CommandFailedError{Command: "open", Attempts: attempts, Cause: lastErr}
	}

	return err
}

// Validate checks that the projector accepts TCP connections, with a single
// attempt and no handshake.
func (p *Projector) Validate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return ErrProjectorClosed
	}

	tr, err := dialTransport(ctx, p.cfg.dialer, p.cfg.Addr(), p.cfg.connectTimeout, p.cfg.writeTimeout, p.logger)
	if err != nil {
		p.logger.Warn("jvc: could not verify connection to projector", "error", err)
		return err
	}
	tr.close()

	return nil
}

// Close releases the connection. A command in progress fails, and the
// Projector cannot be used afterwards.
func (p *Projector) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.dropTransport()
	p.logger.Debug("jvc: projector closed")

	return nil
}

func (p *Projector) retryPolicy(l logger.Logger) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: p.cfg.maxRetries,
		Delay:       p.cfg.sendDelay,
		Retryable: func(err error) bool {
			return !p.closed.Load() && isTransient(err)
		},
		OnRetry: func(attempt int, err error) {
			p.metrics.incRetryCount()
			l.Debug("jvc: retrying", "attempt", attempt, "maxRetries", p.cfg.maxRetries, "error", err)
		},
	}
}

// attempt runs one complete exchange: throttle, connect and negotiate if
// needed, send, read and classify. Any failure closes the transport.
func (p *Projector) attempt(ctx context.Context, req command.Request, l logger.Logger) (*Response, error) {
	if err := p.throttle(ctx); err != nil {
		return nil, err
	}

	tr, reused, err := p.ensureNegotiated(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := p.exchange(tr, req, l)
	if err != nil {
		p.dropTransport()

		if reused && (isPeerClosed(err) || isConnReset(err)) {
			return nil, fmt.Errorf("%w: %w", ErrConnectionDropped, err)
		}

		return nil, err
	}

	p.lastExchange = time.Now()

	if !p.cfg.persistent {
		p.dropTransport()
	}

	return resp, nil
}

// throttle waits until SendDelay has passed since the last completed exchange.
func (p *Projector) throttle(ctx context.Context) error {
	if p.cfg.sendDelay <= 0 || p.lastExchange.IsZero() {
		return nil
	}

	wait := p.cfg.sendDelay - time.Since(p.lastExchange)
	if wait <= 0 {
		return nil
	}
	p.logger.Debug("jvc: throttling", "wait", wait)

	return timerpool.Sleep(ctx, wait)
}

// ensureNegotiated returns the live negotiated transport, or dials and
// negotiates a new one. reused is true when an existing transport is returned:
// it may have sat idle since Open or the last exchange, and the projector
// closes idle sessions.
func (p *Projector) ensureNegotiated(ctx context.Context) (tr *transport, reused bool, err error) {
	if tr := p.getTransport(); tr != nil && p.state.Get().IsNegotiated() {
		return tr, true, nil
	}
	p.dropTransport()

	tr, err = dialTransport(ctx, p.cfg.dialer, p.cfg.Addr(), p.cfg.connectTimeout, p.cfg.writeTimeout, p.logger)
	if err != nil {
		p.metrics.incConnectErrCount()
		return nil, false, err
	}
	p.metrics.incConnectCount()

	p.setTransport(tr)
	if p.closed.Load() {
		p.dropTransport()
		return nil, false, ErrProjectorClosed
	}
	p.state.ToConnected()

	if err := negotiate(tr, &p.state, p.cfg.password, p.cfg.connectTimeout, p.logger); err != nil {
		p.metrics.incHandshakeErrCount()
		p.dropTransport()
		p.logger.Warn("jvc: handshake failed", "error", err)

		return nil, false, err
	}
	p.metrics.incHandshakeCount()

	return tr, false, nil
}

// exchange writes the request frame and reads its reply frames.
func (p *Projector) exchange(tr *transport, req command.Request, l logger.Logger) (*Response, error) {
	frame := req.Frame()
	l.Debug("jvc: sending", "direction", req.Direction, "frame", fmt.Sprintf("%q", frame))

	if err := tr.send(frame); err != nil {
		return nil, err
	}

	if req.Direction == command.Write && !req.Group.VerifyWrite {
		l.Debug("jvc: write verification disabled, not waiting for ACK")
		return &Response{Request: req, Kind: ReplyAck, Mapped: true}, nil
	}

	ack, err := p.readReply(tr, req, ReplyAck)
	if err != nil {
		return nil, err
	}
	if req.Direction == command.Write {
		return &Response{Request: req, Kind: ReplyAck, Raw: ack, Mapped: true}, nil
	}

	reply, err := p.readReply(tr, req, ReplyInfo)
	if err != nil {
		return nil, err
	}

	_, data := classifyReply(req.Group, reply)
	value, mapped := req.Group.Decode(data)
	if !mapped {
		p.metrics.incUnmappedCount()
		l.Warn("jvc: response not in command table, returning raw value", "group", req.Group.Name, "value", value)
	}

	return &Response{Request: req, Kind: ReplyInfo, Raw: reply, Value: value, Mapped: mapped}, nil
}

// readReply reads one frame and checks that it classifies as want.
func (p *Projector) readReply(tr *transport, req command.Request, want ReplyKind) ([]byte, error) {
	frame, err := tr.readFrame(p.cfg.readTimeout)
	if err != nil {
		if isPeerClosed(err) {
			return nil, fmt.Errorf("%w: %s reply to %q cut short after %q: %w", ErrMalformedReply, want, req.Symbolic, frame, err)
		}

		return nil, err
	}

	if kind, _ := classifyReply(req.Group, frame); kind != want {
		return nil, fmt.Errorf("%w: expected %s reply to %q, got %q", ErrMalformedReply, want, req.Symbolic, frame)
	}

	return frame, nil
}

// --- transport management ---

func (p *Projector) setTransport(tr *transport) {
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	p.tr = tr
}

func (p *Projector) getTransport() *transport {
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	return p.tr
}

// dropTransport closes the current transport, if any, and resets the state.
func (p *Projector) dropTransport() {
	p.connMutex.Lock()
	tr := p.tr
	p.tr = nil
	p.connMutex.Unlock()

	p.state.ToNotConnected()
	if tr != nil {
		tr.close()
	}
}
