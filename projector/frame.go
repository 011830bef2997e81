package projector

import (
	"bytes"

	"github.com/jvc-remote/go-jvc/command"
)

// ReplyKind classifies a reply frame.
type ReplyKind uint8

const (
	// ReplyError is any frame that is not an ACK or response for the group.
	ReplyError ReplyKind = iota
	// ReplyAck is the projector's acknowledgement.
	ReplyAck
	// ReplyInfo is a data-bearing response to a read.
	ReplyInfo
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyAck:
		return "ack"
	case ReplyInfo:
		return "info"
	default:
		return "error"
	}
}

// Response is the classified outcome of one command exchange.
type Response struct {
	// Request is the parsed command that was sent.
	Request command.Request
	// Kind is ReplyAck for writes and ReplyInfo for reads.
	Kind ReplyKind
	// Raw is the last frame received.
	Raw []byte
	// Value is the decoded symbolic value of a read, empty otherwise.
	Value string
	// Mapped is false when Value is the raw ASCII of a response the command
	// table does not know.
	Mapped bool
}

// classifyReply matches frame against the ACK and response frames of g.
// For ReplyInfo, data is the payload between the group code and the terminator.
func classifyReply(g *command.Group, frame []byte) (kind ReplyKind, data []byte) {
	if bytes.Equal(frame, command.AckFrame(g)) {
		return ReplyAck, nil
	}

	prefixLen := len(command.HeaderResponse) + 2
	if len(frame) > prefixLen &&
		frame[len(frame)-1] == command.Terminator &&
		bytes.HasPrefix(frame, command.HeaderResponse) &&
		bytes.Equal(frame[len(command.HeaderResponse):prefixLen], g.ReplyCode()) {
		return ReplyInfo, frame[prefixLen : len(frame)-1]
	}

	return ReplyError, nil
}
