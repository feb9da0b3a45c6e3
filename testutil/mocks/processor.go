// MockProcessor 是主 Agent 委派入口的测试模拟实现。
//
// 支持固定委派结果、自定义处理函数与错误注入。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/agentrouter/agent"
	"github.com/BaSui01/agentrouter/types"
)

// --- MockProcessor 结构 ---

// MockProcessor 记录每条消息并返回预设结果
type MockProcessor struct {
	mu sync.Mutex

	delegation agent.Delegation
	err        error
	fn         func(ctx context.Context, msg types.Message) (agent.Delegation, error)

	calls []types.Message
}

// NewMockProcessor 创建新的 MockProcessor，默认回复 "Mock response"
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{
		delegation: agent.Delegation{Response: "Mock response"},
	}
}

// --- Builder 方法 ---

// WithDelegation 设置固定委派结果
func (m *MockProcessor) WithDelegation(d agent.Delegation) *MockProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegation = d
	return m
}

// WithError 设置每次调用返回的错误
func (m *MockProcessor) WithError(err error) *MockProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFunc 设置自定义处理函数，优先于固定结果
func (m *MockProcessor) WithFunc(fn func(ctx context.Context, msg types.Message) (agent.Delegation, error)) *MockProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

// --- 实现 ---

// Process 记录 msg 并返回预设结果
func (m *MockProcessor) Process(ctx context.Context, msg types.Message) (agent.Delegation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, msg)
	fn, d, err := m.fn, m.delegation, m.err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, msg)
	}
	if err != nil {
		return agent.Delegation{}, err
	}
	return d, nil
}

// --- 断言辅助 ---

// Calls 返回已接收消息的副本
func (m *MockProcessor) Calls() []types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Message(nil), m.calls...)
}

// CallCount 返回调用次数
func (m *MockProcessor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall 返回最后一条消息
func (m *MockProcessor) LastCall() (types.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return types.Message{}, false
	}
	return m.calls[len(m.calls)-1], true
}
