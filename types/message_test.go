package types

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_Defaults(t *testing.T) {
	t.Parallel()

	m := NewMessage("build a login page")

	_, err := uuid.Parse(m.ID)
	require.NoError(t, err)
	_, err = uuid.Parse(m.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, SenderUser, m.SenderType)
	assert.Equal(t, MessageTypeText, m.MessageType)
	assert.Equal(t, "build a login page", m.Content)
	assert.False(t, m.Timestamp.IsZero())
}

func TestNewMessage_Options(t *testing.T) {
	t.Parallel()

	m := NewMessage("hi",
		WithConversationID("conv-1"),
		WithSender(SenderUser, "user-7"),
		WithMessageType(MessageTypeTask),
	)

	assert.Equal(t, "conv-1", m.ConversationID)
	assert.Equal(t, "user-7", m.SenderID)
	assert.Equal(t, MessageTypeTask, m.MessageType)

	// empty option values keep defaults
	d := NewMessage("hi", WithConversationID(""), WithSender("", ""), WithMessageType(""))
	assert.NotEmpty(t, d.ConversationID)
	assert.Equal(t, SenderUser, d.SenderType)
	assert.Equal(t, MessageTypeText, d.MessageType)
}

func TestPreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		n     int
		want  string
		whole bool
	}{
		{"", 5, "", true},
		{"abc", 5, "abc", true},
		{"abcde", 5, "abcde", true},
		{"abcdef", 5, "abcde", false},
		{"héllo wörld", 4, "héll", false},
		{"abc", -1, "", false},
	}

	for _, tt := range tests {
		got, whole := Preview(tt.in, tt.n)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.whole, whole, tt.in)
	}
}

func TestTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Title("short"))

	long := strings.Repeat("x", 60)
	assert.Equal(t, strings.Repeat("x", 50)+"...", Title(long))
	assert.Equal(t, strings.Repeat("y", 50), Title(strings.Repeat("y", 50)))
}
