package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/agentrouter/agent/activity"
)

// MockActivity 是活动追踪的内存模拟，可注入错误
type MockActivity struct {
	mu      sync.Mutex
	entries []activity.Entry
	started time.Time
	err     error
}

// NewMockActivity 创建 MockActivity
func NewMockActivity() *MockActivity {
	return &MockActivity{started: time.Now().UTC()}
}

// WithError 让所有读写返回 err
func (m *MockActivity) WithError(err error) *MockActivity {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// RecordDelegation 追加一条记录
func (m *MockActivity) RecordDelegation(_ context.Context, agentID, agentName, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, activity.Entry{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		AgentName: agentName,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Logs 返回最新在前的记录；agentID 为空时不过滤
func (m *MockActivity) Logs(_ context.Context, agentID string, limit int) ([]activity.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]activity.Entry, 0)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if agentID == "" || m.entries[i].AgentID == agentID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

// Summary 汇总记录
func (m *MockActivity) Summary(_ context.Context) (activity.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return activity.Summary{}, m.err
	}
	s := activity.Summary{
		RecentTasksProcessed: int64(len(m.entries)),
		Uptime:               time.Since(m.started),
	}
	if n := len(m.entries); n > 0 {
		last := m.entries[n-1].Timestamp
		s.LastActivity = &last
	}
	return s, nil
}
