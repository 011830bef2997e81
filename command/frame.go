package command

import (
	"bytes"
	"fmt"
)

// Frame headers. Every command and reply frame starts with one of these,
// followed by the group code and ends with Terminator.
var (
	HeaderOperation = []byte("!\x89\x01")
	HeaderReference = []byte("?\x89\x01")
	HeaderResponse  = []byte("@\x89\x01")
	HeaderAck       = []byte("\x06\x89\x01")
)

// Terminator ends every command and reply frame.
const Terminator byte = '\n'

// AckFrameLen is the length of an ACK frame: header, two-byte code, terminator.
const AckFrameLen = 6

// Session tokens exchanged right after the TCP connection is accepted.
// They are fixed-width and not terminated.
var (
	TokenGreeting = []byte("PJ_OK")
	TokenRequest  = []byte("PJREQ")
	TokenAck      = []byte("PJACK")
	TokenNak      = []byte("PJNAK")
)

// TokenLen is the width of every session token.
const TokenLen = 5

// Network password limits. Shorter passwords are NUL-padded to
// MaxPasswordLen in the credential field.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 10
)

// AuthRequest returns the session request for password: TokenRequest alone
// when password is empty, otherwise TokenRequest, "_" and the NUL-padded
// credential field.
func AuthRequest(password string) ([]byte, error) {
	if password == "" {
		return bytes.Clone(TokenRequest), nil
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, TokenLen+1+MaxPasswordLen)
	buf = append(buf, TokenRequest...)
	buf = append(buf, '_')
	buf = append(buf, password...)
	for i := len(password); i < MaxPasswordLen; i++ {
		buf = append(buf, 0)
	}

	return buf, nil
}

// ValidatePassword checks the length and character set of a network password.
func ValidatePassword(password string) error {
	if n := len(password); n < MinPasswordLen || n > MaxPasswordLen {
		return fmt.Errorf("command: password length %d out of range [%d, %d]", n, MinPasswordLen, MaxPasswordLen)
	}
	for i := 0; i < len(password); i++ {
		if c := password[i]; c < 0x21 || c > 0x7e {
			return fmt.Errorf("command: password contains non-printable or non-ASCII byte 0x%02X", c)
		}
	}

	return nil
}

// Frame returns the wire bytes for the request:
// header, group code, write payload (writes only) and terminator.
func (r Request) Frame() []byte {
	header := HeaderReference
	if r.Direction == Write {
		header = HeaderOperation
	}

	buf := make([]byte, 0, len(header)+len(r.Group.Code)+len(r.Payload)+1)
	buf = append(buf, header...)
	buf = append(buf, r.Group.Code...)
	if r.Direction == Write {
		buf = append(buf, r.Payload...)
	}

	return append(buf, Terminator)
}

// AckFrame returns the ACK the projector sends for any command to g.
func AckFrame(g *Group) []byte {
	buf := make([]byte, 0, AckFrameLen)
	buf = append(buf, HeaderAck...)
	buf = append(buf, g.ReplyCode()...)

	return append(buf, Terminator)
}

// ResponseFrame returns the response frame carrying data for a read of g.
func ResponseFrame(g *Group, data []byte) []byte {
	buf := make([]byte, 0, len(HeaderResponse)+2+len(data)+1)
	buf = append(buf, HeaderResponse...)
	buf = append(buf, g.ReplyCode()...)
	buf = append(buf, data...)

	return append(buf, Terminator)
}
