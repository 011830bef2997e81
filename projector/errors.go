package projector

import (
	"errors"
	"fmt"

	"github.com/jvc-remote/go-jvc/command"
)

// Transport errors.
var (
	// ErrConnectTimeout indicates the projector did not accept the TCP
	// connection within the connect timeout.
	ErrConnectTimeout = errors.New("jvc: connect timeout")
	// ErrConnectionRefused indicates the projector refused the connection.
	// Projectors refuse connections that arrive too soon after the previous
	// command, so this error is retried.
	ErrConnectionRefused = errors.New("jvc: connection refused")
	// ErrReadTimeout indicates no complete frame arrived within the read timeout.
	ErrReadTimeout = errors.New("jvc: read timeout")
	// ErrTransport indicates a write failure or a broken connection.
	ErrTransport = errors.New("jvc: transport error")
	// ErrConnectionDropped indicates a kept-alive connection was closed by the
	// projector between commands.
	ErrConnectionDropped = errors.New("jvc: connection dropped by projector")
)

// Handshake errors. A *HandshakeError matches ErrHandshakeFailed and exactly
// one of the reason errors.
var (
	ErrHandshakeFailed        = errors.New("jvc: handshake failed")
	ErrAuthenticationRejected = errors.New("jvc: authentication rejected")
	ErrProtocolMismatch       = errors.New("jvc: protocol mismatch")
	ErrHandshakeTimeout       = errors.New("jvc: handshake timeout")
)

// Session errors.
var (
	// ErrMalformedReply indicates a reply that is neither the expected ACK nor
	// a response frame for the command's group, or an empty reply.
	ErrMalformedReply = errors.New("jvc: malformed reply")
	// ErrCommandFailed indicates a command that kept failing with transient
	// errors until the retry limit was reached.
	ErrCommandFailed = errors.New("jvc: command failed")
	// ErrProjectorClosed indicates use of a Projector after Close.
	ErrProjectorClosed = errors.New("jvc: projector closed")
	// ErrUnmappedPowerState indicates a power read returned a value outside
	// the known power states.
	ErrUnmappedPowerState = errors.New("jvc: unmapped power state")
)

// Caller errors, re-exported from the command package.
var (
	ErrUnknownCommand   = command.ErrUnknownCommand
	ErrInvalidDirection = command.ErrInvalidDirection
)

// HandshakeError describes a failed session negotiation.
type HandshakeError struct {
	// Reason is ErrAuthenticationRejected, ErrProtocolMismatch or ErrHandshakeTimeout.
	Reason error
	// Stage is the token the client was waiting for.
	Stage string
	// Received holds the unexpected bytes, if any.
	Received []byte
	// Err is the underlying I/O error, if any.
	Err error
}

func (e *HandshakeError) Error() string {
	msg := fmt.Sprintf("%s: %s waiting for %s", ErrHandshakeFailed, e.Reason, e.Stage)
	if len(e.Received) > 0 {
		msg += fmt.Sprintf(", received %q", e.Received)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *HandshakeError) Unwrap() []error {
	errs := []error{ErrHandshakeFailed, e.Reason}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// CommandFailedError is returned when a command exhausted its retries.
type CommandFailedError struct {
	Command  string
	Attempts int
	Cause    error
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("%s: %q after %d attempts: %v", ErrCommandFailed, e.Command, e.Attempts, e.Cause)
}

func (e *CommandFailedError) Unwrap() []error {
	return []error{ErrCommandFailed, e.Cause}
}
