package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")

	// ErrConflict 唯一约束冲突
	ErrConflict = errors.New("record already exists")
)

// Page 分页参数
type Page struct {
	Offset int
	Limit  int
}

func (p Page) normalize(defaultLimit int) Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	return p
}

// Transactor 在事务中执行写操作，*database.Pool 实现了它
type Transactor interface {
	WithTransactionRetry(ctx context.Context, attempts int, fn func(tx *gorm.DB) error) error
}

// Repository 用户、任务、会话与消息的持久化访问
type Repository struct {
	db       *gorm.DB
	tx       Transactor
	attempts int
	logger   *zap.Logger
}

// Option 配置 Repository
type Option func(*Repository)

// WithTransactor runs every write transaction through t, retrying transient
// failures (deadlocks, serialization conflicts) up to attempts times.
func WithTransactor(t Transactor, attempts int) Option {
	return func(r *Repository) {
		if attempts < 1 {
			attempts = 1
		}
		r.tx, r.attempts = t, attempts
	}
}

// NewRepository creates a repository over db.
func NewRepository(db *gorm.DB, logger *zap.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{db: db, logger: logger.With(zap.String("component", "store"))}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// transaction 优先使用 Transactor，否则直接使用 gorm 事务
func (r *Repository) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.tx != nil {
		return r.tx.WithTransactionRetry(ctx, r.attempts, fn)
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// AutoMigrate creates or updates every table.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// =============================================================================
// 👤 用户
// =============================================================================

// CreateUser inserts u and fills its ID. A taken username or email is
// ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var taken int64
		err := tx.Model(&User{}).
			Where("username = ? OR email = ?", u.Username, u.Email).
			Count(&taken).Error
		if err != nil {
			return err
		}
		if taken > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(u).Error
	})
	return translate(err, "create user")
}

// GetUser loads a user by ID.
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

// =============================================================================
// 📋 任务
// =============================================================================

// CreateTask inserts t. Status defaults to pending.
func (r *Repository) CreateTask(ctx context.Context, t *Task) error {
	return translate(r.db.WithContext(ctx).Create(t).Error, "create task")
}

// GetTask loads a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get task")
	}
	return &t, nil
}

// ListTasks returns a user's tasks, oldest first.
func (r *Repository) ListTasks(ctx context.Context, userID string, page Page) ([]Task, error) {
	page = page.normalize(100)
	tasks := make([]Task, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, translate(err, "list tasks")
	}
	return tasks, nil
}

// UpdateTask overwrites the editable fields of task id.
func (r *Repository) UpdateTask(ctx context.Context, id string, title, description string, agentAssigned *string) (*Task, error) {
	var t Task
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		t.Title = title
		t.Description = description
		t.AgentAssigned = agentAssigned
		return tx.Save(&t).Error
	})
	if err != nil {
		return nil, translate(err, "update task")
	}
	return &t, nil
}

// SetTaskStatus changes the status of task id.
func (r *Repository) SetTaskStatus(ctx context.Context, id, status string) (*Task, error) {
	var t Task
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		t.Status = status
		return tx.Save(&t).Error
	})
	if err != nil {
		return nil, translate(err, "set task status")
	}
	return &t, nil
}

// DeleteTask removes task id.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "delete task")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete task: %w", ErrNotFound)
	}
	return nil
}

// =============================================================================
// 💬 会话与消息
// =============================================================================

// CreateConversation inserts c.
func (r *Repository) CreateConversation(ctx context.Context, c *Conversation) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "create conversation")
}

// GetConversation loads a conversation by ID.
func (r *Repository) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get conversation")
	}
	return &c, nil
}

// ListConversations returns conversations newest first and the total count.
func (r *Repository) ListConversations(ctx context.Context, page Page) ([]Conversation, int64, error) {
	page = page.normalize(20)

	var total int64
	db := r.db.WithContext(ctx).Model(&Conversation{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count conversations")
	}

	convs := make([]Conversation, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&convs).Error
	if err != nil {
		return nil, 0, translate(err, "list conversations")
	}
	return convs, total, nil
}

// CountConversations counts conversations with status.
func (r *Repository) CountConversations(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Conversation{}).Where("status = ?", status).Count(&n).Error
	return n, translate(err, "count conversations")
}

// ListMessages returns a conversation's messages oldest first and the total count.
func (r *Repository) ListMessages(ctx context.Context, conversationID string, page Page) ([]ChatMessage, int64, error) {
	page = page.normalize(50)

	var total int64
	err := r.db.WithContext(ctx).Model(&ChatMessage{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	if err != nil {
		return nil, 0, translate(err, "count messages")
	}

	msgs := make([]ChatMessage, 0)
	err = r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, translate(err, "list messages")
	}
	return msgs, total, nil
}

// SaveExchange stores a user message and the agent reply in one
// transaction. When conv has no ID it is created first; otherwise it must
// exist.
func (r *Repository) SaveExchange(ctx context.Context, conv *Conversation, msgs ...*ChatMessage) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if conv.ID == "" {
			if err := tx.Create(conv).Error; err != nil {
				return err
			}
		} else {
			if err := tx.First(conv, "id = ?", conv.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(conv).UpdateColumn("updated_at", time.Now().UTC()).Error; err != nil {
				return err
			}
		}

		// stagger timestamps so the exchange lists in insertion order
		base := time.Now().UTC()
		for i, m := range msgs {
			m.ConversationID = conv.ID
			if m.CreatedAt.IsZero() {
				m.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
			}
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(err, "save exchange")
	}

	r.logger.Debug("exchange saved",
		zap.String("conversation_id", conv.ID),
		zap.Int("messages", len(msgs)),
	)
	return nil
}
