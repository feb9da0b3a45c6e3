package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/types"
)

// DefaultCapacity 是日志默认保留条数
const DefaultCapacity = 1000

// previewLen 是日志中保留的内容长度
const previewLen = 100

// Entry 一条委派记录
type Entry struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary 系统活动概览
type Summary struct {
	RecentTasksProcessed int64         `json:"recent_tasks_processed"`
	LastActivity         *time.Time    `json:"last_activity"`
	Uptime               time.Duration `json:"-"`
}

// Tracker records which agent handled what, and when.
type Tracker struct {
	store     Store
	startedAt time.Time
	logger    *zap.Logger
}

// NewTracker creates a tracker over store.
func NewTracker(store Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:     store,
		startedAt: now(),
		logger:    logger.With(zap.String("component", "activity")),
	}
}

// RecordDelegation appends a log entry for a completed delegation.
func (t *Tracker) RecordDelegation(ctx context.Context, agentID, agentName, content string) error {
	preview, _ := types.Preview(content, previewLen)
	e := Entry{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		AgentName: agentName,
		Content:   preview,
		Timestamp: now(),
	}
	if err := t.store.Append(ctx, e); err != nil {
		return err
	}
	t.logger.Debug("delegation recorded", zap.String("agent_id", agentID), zap.String("entry_id", e.ID))
	return nil
}

// Logs returns up to limit entries, newest first. agentID filters to one agent.
func (t *Tracker) Logs(ctx context.Context, agentID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	return t.store.Recent(ctx, agentID, limit)
}

// Summary returns processed count, last activity and uptime.
func (t *Tracker) Summary(ctx context.Context) (Summary, error) {
	processed, err := t.store.Processed(ctx)
	if err != nil {
		return Summary{}, err
	}
	latest, err := t.store.Recent(ctx, "", 1)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		RecentTasksProcessed: processed,
		Uptime:               now().Sub(t.startedAt),
	}
	if len(latest) > 0 {
		ts := latest[0].Timestamp
		s.LastActivity = &ts
	}
	return s, nil
}

// StartedAt returns when the tracker was created.
func (t *Tracker) StartedAt() time.Time {
	return t.startedAt
}
