package types

import (
	"time"

	"github.com/google/uuid"
)

// SenderType identifies who authored a message.
type SenderType string

const (
	SenderUser      SenderType = "user"
	SenderMainAgent SenderType = "main_agent"
	SenderSubAgent  SenderType = "sub_agent"
)

// MessageType classifies message payloads.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeTask     MessageType = "task"
	MessageTypeCommand  MessageType = "command"
	MessageTypeResponse MessageType = "response"
)

// Message is an inbound request value handed to agents.
// It is built once per request and never mutated afterwards.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	SenderType     SenderType  `json:"sender_type"`
	SenderID       string      `json:"sender_id"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"message_type"`
	Timestamp      time.Time   `json:"timestamp"`
}

// MessageOption customizes NewMessage.
type MessageOption func(*Message)

// WithConversationID pins the message to an existing conversation.
func WithConversationID(id string) MessageOption {
	return func(m *Message) {
		if id != "" {
			m.ConversationID = id
		}
	}
}

// WithSender sets the author of the message.
func WithSender(senderType SenderType, senderID string) MessageOption {
	return func(m *Message) {
		if senderType != "" {
			m.SenderType = senderType
		}
		if senderID != "" {
			m.SenderID = senderID
		}
	}
}

// WithMessageType overrides the default text type.
func WithMessageType(t MessageType) MessageOption {
	return func(m *Message) {
		if t != "" {
			m.MessageType = t
		}
	}
}

// NewMessage builds a user text message with fresh IDs.
func NewMessage(content string, opts ...MessageOption) Message {
	m := Message{
		ID:             uuid.NewString(),
		ConversationID: uuid.NewString(),
		SenderType:     SenderUser,
		SenderID:       "anonymous",
		Content:        content,
		MessageType:    MessageTypeText,
		Timestamp:      time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Preview returns at most n runes of s. ok is false when s was cut.
func Preview(s string, n int) (string, bool) {
	if n < 0 {
		n = 0
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], false
		}
		i++
	}
	return s, true
}

// Title builds a conversation title from the first message content:
// the first 50 runes plus "..." when longer, otherwise the content itself.
func Title(content string) string {
	head, whole := Preview(content, 50)
	if whole {
		return head
	}
	return head + "..."
}
