// Package emulator implements the device side of the JVC projector control
// protocol, for tests and for exercising clients without hardware.
package emulator

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/logger"
)

const (
	// DefaultIdleTimeout closes connections without traffic.
	DefaultIdleTimeout = 30 * time.Second
	// credentialWait bounds the wait for the credential suffix after PJREQ.
	credentialWait = 100 * time.Millisecond
)

// Frame is a command frame received by the emulator.
type Frame struct {
	ConnID string
	At     time.Time
	Data   []byte
}

// Option configures a Server.
type Option func(*Server)

// WithPassword makes the emulator require the network password.
func WithPassword(password string) Option {
	return func(s *Server) { s.password = password }
}

// WithCloseOnAuthFailure makes the emulator drop the connection on a wrong
// password instead of answering PJNAK.
func WithCloseOnAuthFailure() Option {
	return func(s *Server) { s.closeOnAuthFailure = true }
}

// WithCloseAfterCommand makes the emulator close the connection after every
// command, like projectors that do not keep sessions open.
func WithCloseAfterCommand() Option {
	return func(s *Server) { s.closeAfterCommand = true }
}

// WithGreeting replaces the PJ_OK greeting.
func WithGreeting(greeting []byte) Option {
	return func(s *Server) { s.greeting = slices.Clone(greeting) }
}

// WithCommandTable replaces the command table used to route frames.
func WithCommandTable(t *command.Table) Option {
	return func(s *Server) { s.table = t }
}

// WithIdleTimeout sets how long a connection may stay silent.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is an emulated projector.
type Server struct {
	table              *command.Table
	password           string
	closeOnAuthFailure bool
	closeAfterCommand  bool
	greeting           []byte
	idleTimeout        time.Duration
	logger             logger.Logger

	listener net.Listener
	conns    *xsync.MapOf[string, net.Conn]
	wg       sync.WaitGroup
	closed   atomic.Bool

	connCount   atomic.Uint64
	silentCount atomic.Int32

	mu         sync.Mutex
	state      map[string][]byte
	rawReplies map[string][][]byte
	frames     []Frame
}

// New creates a Server in standby with no connections.
func New(opts ...Option) *Server {
	s := &Server{
		table:       command.DefaultTable(),
		greeting:    command.TokenGreeting,
		idleTimeout: DefaultIdleTimeout,
		logger:      logger.GetLogger(),
		conns:       xsync.NewMapOf[string, net.Conn](),
		state: map[string][]byte{
			command.Power:      []byte("0"),
			command.Signal:     []byte("0"),
			command.MACAddress: []byte("E0DADC0A1B2C"),
			command.ModelInfo:  []byte("ILAFPJ -- B5A2"),
		},
		rawReplies: make(map[string][][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "emulator")

	return s
}

// Start listens on addr, for example "127.0.0.1:0", and serves connections
// in the background until Close.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("emulator listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Host returns the listen IP.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listen port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	n, _ := strconv.Atoi(port)

	return n
}

// Close stops listening, closes every connection and waits for the
// connection handlers to return.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.DisconnectAll()
	s.wg.Wait()

	return err
}

// DisconnectAll closes the open connections but keeps listening.
func (s *Server) DisconnectAll() {
	s.conns.Range(func(id string, conn net.Conn) bool {
		_ = conn.Close()
		s.logger.Debug("emulator dropped connection", "conn", id)

		return true
	})
}

// ConnCount returns the number of accepted connections.
func (s *Server) ConnCount() int { return int(s.connCount.Load()) }

// SetState sets the raw read payload of group, for example SetState("power", "4")
// for an emergency state.
func (s *Server) SetState(group string, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state[group] = []byte(payload)
}

// State returns the raw read payload of group.
func (s *Server) State(group string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.state[group])
}

// QueueRawReply makes the next command addressed to group answered with data
// verbatim instead of the regular ACK and response.
func (s *Server) QueueRawReply(group string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rawReplies[group] = append(s.rawReplies[group], slices.Clone(data))
}

// SilenceNext makes the emulator ignore the next n command frames.
func (s *Server) SilenceNext(n int) {
	s.silentCount.Store(int32(n))
}

// Frames returns the received command frames in arrival order.
func (s *Server) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.frames)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.closed.Load() && !errors.Is(err, net.ErrClosed) {
				s.logger.Error("emulator accept failed", "error", err)
			}

			return
		}

		s.connCount.Add(1)
		id := uuid.NewString()
		s.conns.Store(id, conn)
		if s.closed.Load() {
			s.conns.Delete(id)
			_ = conn.Close()

			return
		}

		s.wg.Add(1)
		go s.serveConn(id, conn)
	}
}

func (s *Server) serveConn(id string, conn net.Conn) {
	defer s.wg.Done()
	defer s.conns.Delete(id)
	defer conn.Close()

	l := s.logger.With("conn", id, "remoteAddr", conn.RemoteAddr().String())
	l.Debug("emulator accepted connection")

	reader := bufio.NewReader(conn)
	if !s.handshake(conn, reader, l) {
		return
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		data, err := reader.ReadBytes(command.Terminator)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				l.Debug("emulator read failed", "error", err)
			}

			return
		}

		s.mu.Lock()
		s.frames = append(s.frames, Frame{ConnID: id, At: time.Now(), Data: data})
		s.mu.Unlock()

		if s.silentCount.Add(-1) >= 0 {
			l.Debug("emulator ignoring frame", "frame", data)
			continue
		}
		s.silentCount.Store(0)

		reply := s.handleFrame(data, l)
		if len(reply) > 0 {
			if _, err := conn.Write(reply); err != nil {
				l.Debug("emulator write failed", "error", err)
				return
			}
		}

		if s.closeAfterCommand {
			return
		}
	}
}

// handshake sends the greeting and checks the session request.
func (s *Server) handshake(conn net.Conn, reader *bufio.Reader, l logger.Logger) bool {
	if _, err := conn.Write(s.greeting); err != nil {
		return false
	}

	_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
	req := make([]byte, command.TokenLen)
	if _, err := io.ReadFull(reader, req); err != nil || !bytes.Equal(req, command.TokenRequest) {
		l.Debug("emulator bad session request", "request", req, "error", err)
		return false
	}

	// the credential suffix is optional, so wait briefly for it
	_ = conn.SetReadDeadline(time.Now().Add(credentialWait))
	if b, err := reader.Peek(1); err == nil && b[0] == '_' {
		cred := make([]byte, 1+command.MaxPasswordLen)
		_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		if _, err := io.ReadFull(reader, cred); err != nil {
			return false
		}
		req = append(req, cred...)
	}

	if s.password != "" {
		want, err := command.AuthRequest(s.password)
		if err != nil || !bytes.Equal(req, want) {
			l.Info("emulator rejected credentials")
			if s.closeOnAuthFailure {
				return false
			}
			_, _ = conn.Write(command.TokenNak)

			return false
		}
	}

	if _, err := conn.Write(command.TokenAck); err != nil {
		return false
	}
	l.Debug("emulator session established")

	return true
}

// handleFrame returns the bytes to answer data with, nil for no answer.
func (s *Server) handleFrame(data []byte, l logger.Logger) []byte {
	if len(data) < len(command.HeaderOperation)+1 {
		l.Warn("emulator short frame", "frame", data)
		return nil
	}

	header := data[:len(command.HeaderOperation)]
	body := data[len(header) : len(data)-1]

	g, ok := s.table.MatchCode(body)
	if !ok {
		l.Warn("emulator unknown command", "frame", data)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if queued := s.rawReplies[g.Name]; len(queued) > 0 {
		s.rawReplies[g.Name] = queued[1:]
		return queued[0]
	}

	switch {
	case bytes.Equal(header, command.HeaderOperation):
		if payload := body[len(g.Code):]; len(payload) > 0 {
			s.state[g.Name] = slices.Clone(payload)
		}
		l.Debug("emulator operation", "group", g.Name, "payload", body[len(g.Code):])

		if !g.VerifyWrite {
			return nil
		}

		return command.AckFrame(g)

	case bytes.Equal(header, command.HeaderReference):
		value, ok := s.state[g.Name]
		if !ok {
			value = []byte("0")
		}
		l.Debug("emulator reference", "group", g.Name, "value", value)

		return append(command.AckFrame(g), command.ResponseFrame(g, value)...)

	default:
		l.Warn("emulator unknown header", "frame", data)
		return nil
	}
}
