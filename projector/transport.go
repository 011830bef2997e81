package projector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/logger"
)

// transport owns one TCP connection to the projector and provides
// deadline-bounded frame I/O on it.
//
// This type is NOT goroutine-safe except for close, which may be called
// concurrently to unblock a pending read.
type transport struct {
	conn         net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration
	logger       logger.Logger
}

func newTransport(conn net.Conn, writeTimeout time.Duration, l logger.Logger) *transport {
	return &transport{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writeTimeout: writeTimeout,
		logger:       l,
	}
}

// dialTransport opens the TCP connection.
//
// A dial that does not complete within timeout fails with ErrConnectTimeout,
// and a refused or reset connection with ErrConnectionRefused. Other failures,
// such as an unresolvable host, are wrapped in ErrTransport and are not
// retried. Cancellation of ctx is returned as is.
func dialTransport(ctx context.Context, d Dialer, addr string, timeout, writeTimeout time.Duration, l logger.Logger) (*transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		l.Debug("jvc: dial failed", "addr", addr, "error", err)

		switch {
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			return nil, err
		case isTimeout(err):
			return nil, fmt.Errorf("%w: %s: %w", ErrConnectTimeout, addr, err)
		case isConnRefused(err):
			return nil, fmt.Errorf("%w: %s: %w", ErrConnectionRefused, addr, err)
		default:
			return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, addr, err)
		}
	}

	l.Debug("jvc: connected", "localAddr", conn.LocalAddr(), "remoteAddr", conn.RemoteAddr())

	return newTransport(conn, writeTimeout, l), nil
}

// send writes all bytes in data.
func (t *transport) send(data []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	for written := 0; written < len(data); {
		n, err := t.conn.Write(data[written:])
		written += n

		if err != nil {
			return fmt.Errorf("%w: wrote %d of %d bytes: %w", ErrTransport, written, len(data), err)
		}
	}

	return nil
}

// readFixed reads exactly n bytes within maxWait. On failure it returns the
// bytes read so far together with the error.
func (t *transport) readFixed(n int, maxWait time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(maxWait)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(t.reader, buf)
	if err != nil {
		return buf[:read], t.readError(err)
	}

	return buf, nil
}

// readFrame reads one Terminator-delimited frame within maxWait. The returned
// frame includes the terminator.
func (t *transport) readFrame(maxWait time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(maxWait)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	frame, err := t.reader.ReadBytes(command.Terminator)
	if err != nil {
		return frame, t.readError(err)
	}

	return frame, nil
}

func (t *transport) readError(err error) error {
	switch {
	case isTimeout(err):
		return fmt.Errorf("%w: %w", ErrReadTimeout, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: closed by peer: %w", ErrTransport, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}

// close closes the connection. It is safe to call more than once.
func (t *transport) close() {
	if err := t.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		t.logger.Debug("jvc: failed to close connection", "error", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func isPeerClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// isConnRefused reports whether the projector turned the connection away.
func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// isConnReset reports whether the peer reset a connection we still held.
func isConnReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}
