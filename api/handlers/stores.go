package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/internal/store"
	"github.com/BaSui01/agentrouter/types"
)

// ChatStore 会话与消息的持久化，由 store.Repository 实现
type ChatStore interface {
	CreateConversation(ctx context.Context, c *store.Conversation) error
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	ListConversations(ctx context.Context, page store.Page) ([]store.Conversation, int64, error)
	CountConversations(ctx context.Context, status string) (int64, error)
	ListMessages(ctx context.Context, conversationID string, page store.Page) ([]store.ChatMessage, int64, error)
	SaveExchange(ctx context.Context, conv *store.Conversation, msgs ...*store.ChatMessage) error
}

// TaskStore 用户与任务的持久化，由 store.Repository 实现
type TaskStore interface {
	CreateUser(ctx context.Context, u *store.User) error
	GetUser(ctx context.Context, id string) (*store.User, error)
	CreateTask(ctx context.Context, t *store.Task) error
	GetTask(ctx context.Context, id string) (*store.Task, error)
	ListTasks(ctx context.Context, userID string, page store.Page) ([]store.Task, error)
	UpdateTask(ctx context.Context, id string, title, description string, agentAssigned *string) (*store.Task, error)
	SetTaskStatus(ctx context.Context, id, status string) (*store.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// storageUnavailable 在未配置数据库时返回 503
func storageUnavailable(w http.ResponseWriter, logger *zap.Logger) {
	WriteError(w, types.NewError(types.ErrStorageUnavailable, "storage is not configured").
		WithHTTPStatus(http.StatusServiceUnavailable).
		WithRetryable(true), logger)
}

// writeStoreError 把仓储错误翻译为 API 错误；notFound 指定 404 的错误码与消息
func writeStoreError(w http.ResponseWriter, err error, notFound types.ErrorCode, what string, logger *zap.Logger) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, types.NewNotFoundError(notFound, what+" not found"), logger)
	case errors.Is(err, store.ErrConflict):
		WriteError(w, types.NewError(types.ErrInvalidRequest, what+" already exists").
			WithHTTPStatus(http.StatusConflict), logger)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, types.NewError(types.ErrTimeout, "request cancelled").WithCause(err), logger)
	default:
		writeInternal(w, what+" storage failed", err, logger)
	}
}
