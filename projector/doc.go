// Package projector implements a client for the JVC D-ILA projector network
// control protocol on TCP port 20554.
//
// # Protocol Overview
//
// Every session starts with a handshake of fixed five byte tokens:
//
//   - the projector sends PJ_OK after accepting the connection
//   - the client answers PJREQ, or PJREQ_ followed by the network password
//     NUL-padded to ten bytes
//   - the projector answers PJACK, or PJNAK on a wrong password
//
// Commands are binary frames terminated by a line feed. An operation (write)
// starts with "!\x89\x01", a reference (read) with "?\x89\x01". The projector
// acknowledges each command with "\x06\x89\x01" plus the first two bytes of
// the group code; a read is then answered with a response frame starting
// with "@\x89\x01".
//
// # Pacing and Retries
//
// Projectors refuse connections that arrive too soon after the previous
// command. A [Projector] therefore keeps at least SendDelay between the end
// of one exchange and the start of the next, and retries refused connections
// and read timeouts up to MaxRetries attempts. Handshake failures and
// malformed commands are never retried.
//
// # Concurrency
//
// A [Projector] serializes its commands: the protocol carries no request
// identifiers, so only one exchange may be in flight on a connection. Use a
// [Pool] to share projectors between independent callers.
package projector
