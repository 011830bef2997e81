package projector

import (
	"bytes"
	"errors"
	"time"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/logger"
)

// handshakeState is scoped to one negotiation and discarded afterwards.
type handshakeState struct {
	greetingReceived bool
	authRequired     bool
	authAcknowledged bool
}

// negotiate performs the session handshake on a freshly connected transport:
//
//  1. wait for the PJ_OK greeting;
//  2. send PJREQ, carrying the credential field when a password is set;
//  3. wait for PJACK.
//
// st must be in ConnectedState; it ends in NegotiatedState on success. There
// is no retry here, a failed negotiation is returned as a *HandshakeError and
// the caller closes the transport.
func negotiate(tr *transport, st *atomicConnState, password string, timeout time.Duration, l logger.Logger) error {
	hs := handshakeState{authRequired: password != ""}

	greeting, err := tr.readFixed(command.TokenLen, timeout)
	if err != nil {
		return handshakeReadError(string(command.TokenGreeting), greeting, err, false)
	}
	if !bytes.Equal(greeting, command.TokenGreeting) {
		return &HandshakeError{Reason: ErrProtocolMismatch, Stage: string(command.TokenGreeting), Received: greeting}
	}
	hs.greetingReceived = true

	req, err := command.AuthRequest(password)
	if err != nil {
		return &HandshakeError{Reason: ErrAuthenticationRejected, Stage: string(command.TokenGreeting), Err: err}
	}
	if err := tr.send(req); err != nil {
		return &HandshakeError{Reason: ErrProtocolMismatch, Stage: string(command.TokenAck), Err: err}
	}
	st.ToGreetingSent()

	ack, err := tr.readFixed(command.TokenLen, timeout)
	if err != nil {
		return handshakeReadError(string(command.TokenAck), ack, err, hs.authRequired)
	}

	switch {
	case bytes.Equal(ack, command.TokenAck):
		hs.authAcknowledged = hs.authRequired
	case bytes.Equal(ack, command.TokenNak):
		return &HandshakeError{Reason: ErrAuthenticationRejected, Stage: string(command.TokenAck), Received: ack}
	default:
		return &HandshakeError{Reason: ErrProtocolMismatch, Stage: string(command.TokenAck), Received: ack}
	}

	if !st.ToNegotiated() {
		return &HandshakeError{Reason: ErrProtocolMismatch, Stage: string(command.TokenAck), Err: errors.New("unexpected state " + st.String())}
	}

	l.Debug("jvc: handshake complete",
		"greeting", hs.greetingReceived,
		"auth", hs.authRequired,
		"authAcknowledged", hs.authAcknowledged)

	return nil
}

// handshakeReadError maps a failed token read. A projector with a network
// password closes the connection instead of answering a wrong credential, so
// a peer close after a credentialed request counts as a rejection.
func handshakeReadError(stage string, received []byte, err error, credentialSent bool) error {
	reason := ErrProtocolMismatch
	switch {
	case errors.Is(err, ErrReadTimeout):
		reason = ErrHandshakeTimeout
	case credentialSent && isPeerClosed(err):
		reason = ErrAuthenticationRejected
	}

	return &HandshakeError{Reason: reason, Stage: stage, Received: received, Err: err}
}
