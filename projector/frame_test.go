package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvc-remote/go-jvc/command"
)

func TestClassifyReply(t *testing.T) {
	power, ok := command.DefaultTable().Lookup(command.Power)
	require.True(t, ok)

	tests := []struct {
		name  string
		frame []byte
		kind  ReplyKind
		data  []byte
	}{
		{"ack", []byte("\x06\x89\x01PW\n"), ReplyAck, nil},
		{"info", []byte("@\x89\x01PW1\n"), ReplyInfo, []byte("1")},
		{"info multi-byte", []byte("@\x89\x01PW0C\n"), ReplyInfo, []byte("0C")},
		{"ack for other group", []byte("\x06\x89\x01IP\n"), ReplyError, nil},
		{"info for other group", []byte("@\x89\x01IP6\n"), ReplyError, nil},
		{"info without data", []byte("@\x89\x01PW\n"), ReplyError, nil},
		{"no terminator", []byte("@\x89\x01PW1"), ReplyError, nil},
		{"empty", nil, ReplyError, nil},
		{"garbage", []byte("hello\n"), ReplyError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, data := classifyReply(power, tt.frame)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestReplyKind_String(t *testing.T) {
	assert.Equal(t, "ack", ReplyAck.String())
	assert.Equal(t, "info", ReplyInfo.String())
	assert.Equal(t, "error", ReplyError.String())
}
