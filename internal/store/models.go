package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// Conversation statuses.
const (
	ConversationActive   = "active"
	ConversationArchived = "archived"
)

// User 任务与会话的所有者
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"size:30;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Task 用户任务
type Task struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	UserID        string    `gorm:"size:36;not null;index:idx_tasks_user" json:"user_id"`
	AgentAssigned *string   `gorm:"size:100" json:"agent_assigned"`
	Status        string    `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	return nil
}

// Conversation 聊天会话
type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:100;index:idx_conversations_user" json:"user_id"`
	Title     string    `gorm:"size:255" json:"title"`
	Status    string    `gorm:"size:20;not null;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = ConversationActive
	}
	return nil
}

// ChatMessage 会话中的一条消息
type ChatMessage struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string    `gorm:"size:36;not null;index:idx_chat_messages_conversation" json:"conversation_id"`
	SenderType     string    `gorm:"size:20;not null" json:"sender_type"`
	SenderID       string    `gorm:"size:100;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	MessageType    string    `gorm:"size:20;not null;default:text" json:"message_type"`
	AgentUsed      *string   `gorm:"size:100" json:"agent_used"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

func (m *ChatMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.MessageType == "" {
		m.MessageType = "text"
	}
	return nil
}

// Models lists every persisted model, in dependency order.
func Models() []any {
	return []any{&User{}, &Conversation{}, &ChatMessage{}, &Task{}}
}
