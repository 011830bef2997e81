package emulator

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvc-remote/go-jvc/command"
)

func startServer(t *testing.T, opts ...Option) *Server {
	t.Helper()

	s := New(opts...)
	require.NoError(t, s.Start("127.0.0.1:0"))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func dialRaw(t *testing.T, s *Server) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	return conn, bufio.NewReader(conn)
}

func readToken(t *testing.T, r *bufio.Reader) string {
	t.Helper()

	buf := make([]byte, command.TokenLen)
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)

	return string(buf)
}

func readFrame(t *testing.T, r *bufio.Reader) []byte {
	t.Helper()

	frame, err := r.ReadBytes(command.Terminator)
	require.NoError(t, err)

	return frame
}

func handshake(t *testing.T, conn net.Conn, r *bufio.Reader, password string) string {
	t.Helper()

	require.Equal(t, "PJ_OK", readToken(t, r))
	req, err := command.AuthRequest(password)
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)

	return readToken(t, r)
}

func TestServer_WriteThenRead(t *testing.T) {
	s := startServer(t)
	conn, r := dialRaw(t, s)

	require.Equal(t, "PJACK", handshake(t, conn, r, ""))

	_, err := conn.Write([]byte("!\x89\x01PW1\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x06\x89\x01PW\n"), readFrame(t, r))
	assert.Equal(t, "1", s.State(command.Power))

	_, err = conn.Write([]byte("?\x89\x01PW\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x06\x89\x01PW\n"), readFrame(t, r))
	assert.Equal(t, []byte("@\x89\x01PW1\n"), readFrame(t, r))

	frames := s.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, []byte("!\x89\x01PW1\n"), frames[0].Data)
	assert.False(t, frames[1].At.Before(frames[0].At))
	assert.Equal(t, frames[0].ConnID, frames[1].ConnID)
}

func TestServer_Password(t *testing.T) {
	s := startServer(t, WithPassword("secret12"))

	conn, r := dialRaw(t, s)
	assert.Equal(t, "PJACK", handshake(t, conn, r, "secret12"))

	conn, r = dialRaw(t, s)
	assert.Equal(t, "PJNAK", handshake(t, conn, r, "wrong123"))

	conn, r = dialRaw(t, s)
	assert.Equal(t, "PJNAK", handshake(t, conn, r, ""))
}

func TestServer_CloseOnAuthFailure(t *testing.T) {
	s := startServer(t, WithPassword("secret12"), WithCloseOnAuthFailure())
	conn, r := dialRaw(t, s)

	require.Equal(t, "PJ_OK", readToken(t, r))
	req, err := command.AuthRequest("wrong123")
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)

	_, err = r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestServer_RawReplyAndSilence(t *testing.T) {
	s := startServer(t)
	conn, r := dialRaw(t, s)
	require.Equal(t, "PJACK", handshake(t, conn, r, ""))

	s.QueueRawReply(command.Power, []byte("junk\n"))
	_, err := conn.Write([]byte("?\x89\x01PW\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("junk\n"), readFrame(t, r))

	s.SilenceNext(1)
	_, err = conn.Write([]byte("?\x89\x01PW\n"))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err = r.ReadByte()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Write([]byte("?\x89\x01PW\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x06\x89\x01PW\n"), readFrame(t, r))
	assert.Equal(t, []byte("@\x89\x01PW0\n"), readFrame(t, r))
}

func TestServer_CloseAfterCommand(t *testing.T) {
	s := startServer(t, WithCloseAfterCommand())
	conn, r := dialRaw(t, s)
	require.Equal(t, "PJACK", handshake(t, conn, r, ""))

	_, err := conn.Write([]byte("!\x89\x01\x00\x00\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x06\x89\x01\x00\x00\n"), readFrame(t, r))

	_, err = r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, s.ConnCount())
}

func TestServer_SetStateAndDisconnect(t *testing.T) {
	s := startServer(t)
	s.SetState(command.Power, "4")

	conn, r := dialRaw(t, s)
	require.Equal(t, "PJACK", handshake(t, conn, r, ""))

	_, err := conn.Write([]byte("?\x89\x01PW\n"))
	require.NoError(t, err)
	readFrame(t, r)
	assert.Equal(t, []byte("@\x89\x01PW4\n"), readFrame(t, r))

	s.DisconnectAll()
	_, err = r.ReadByte()
	assert.Error(t, err)
}
