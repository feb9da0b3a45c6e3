package handlers

import (
	"sync/atomic"
	"time"
)

// Metrics 是处理器上报的业务指标，由 internal/metrics.Collector 实现
type Metrics interface {
	RecordRouting(agentID string, confidence float64)
	RecordAnalysis(category, complexity string)
	RecordAgentStateTransition(agentID, fromState, toState string)
	WebSocketOpened()
	WebSocketClosed()
	RecordWebSocketMessage(status string)
}

type nopMetrics struct{}

func (nopMetrics) RecordRouting(string, float64)                      {}
func (nopMetrics) RecordAnalysis(string, string)                      {}
func (nopMetrics) RecordAgentStateTransition(string, string, string) {}
func (nopMetrics) WebSocketOpened()                                   {}
func (nopMetrics) WebSocketClosed()                                   {}
func (nopMetrics) RecordWebSocketMessage(string)                      {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

// =============================================================================
// ⏱️ 请求统计（/performance 使用）
// =============================================================================

// RequestStats 统计进行中的请求与平均响应时间。并发安全。
type RequestStats struct {
	inFlight   atomic.Int64
	count      atomic.Int64
	totalNanos atomic.Int64
}

// Begin 标记一个请求开始，返回结束回调
func (s *RequestStats) Begin() func() {
	start := time.Now()
	s.inFlight.Add(1)
	return func() {
		s.inFlight.Add(-1)
		s.count.Add(1)
		s.totalNanos.Add(int64(time.Since(start)))
	}
}

// ActiveConnections 返回进行中的请求数；打开的 WebSocket 在断开前一直计入
func (s *RequestStats) ActiveConnections() int64 {
	return s.inFlight.Load()
}

// AverageResponseTime 返回已完成请求的平均耗时
func (s *RequestStats) AverageResponseTime() time.Duration {
	n := s.count.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(s.totalNanos.Load() / n)
}
