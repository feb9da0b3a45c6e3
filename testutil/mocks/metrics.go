package mocks

import "sync"

// MetricsEvent 记录一次指标调用
type MetricsEvent struct {
	Name   string
	Labels []string
	Value  float64
}

// MockMetrics 记录所有指标调用，满足 handlers.Metrics 与
// agent.DelegationMetrics
type MockMetrics struct {
	mu       sync.Mutex
	events   []MetricsEvent
	wsActive int
}

// NewMockMetrics 创建空的 MockMetrics
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{}
}

func (m *MockMetrics) record(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, MetricsEvent{Name: name, Labels: labels, Value: value})
}

func (m *MockMetrics) RecordDelegation(agentName, outcome string) {
	m.record("delegation", 1, agentName, outcome)
}

func (m *MockMetrics) RecordRouting(agentID string, confidence float64) {
	m.record("routing", confidence, agentID)
}

func (m *MockMetrics) RecordAnalysis(category, complexity string) {
	m.record("analysis", 1, category, complexity)
}

func (m *MockMetrics) RecordAgentStateTransition(agentID, fromState, toState string) {
	m.record("state_transition", 1, agentID, fromState, toState)
}

func (m *MockMetrics) WebSocketOpened() {
	m.mu.Lock()
	m.wsActive++
	m.mu.Unlock()
	m.record("ws_opened", 1)
}

func (m *MockMetrics) WebSocketClosed() {
	m.mu.Lock()
	m.wsActive--
	m.mu.Unlock()
	m.record("ws_closed", 1)
}

func (m *MockMetrics) RecordWebSocketMessage(status string) {
	m.record("ws_message", 1, status)
}

// Events 返回名为 name 的事件
func (m *MockMetrics) Events(name string) []MetricsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MetricsEvent
	for _, e := range m.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// ActiveWebSockets 返回当前打开的连接数
func (m *MockMetrics) ActiveWebSockets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wsActive
}
