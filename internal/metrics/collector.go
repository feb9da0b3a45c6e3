// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 路由指标
	delegationsTotal      *prometheus.CounterVec
	routingDecisionsTotal *prometheus.CounterVec
	routingConfidence     prometheus.Histogram
	analysesTotal         *prometheus.CounterVec

	// Agent 指标
	agentStateTransitions *prometheus.CounterVec

	// WebSocket 指标
	wsConnectionsActive prometheus.Gauge
	wsMessagesTotal     *prometheus.CounterVec

	// 缓存指标
	cacheHits   prometheus.Gauge
	cacheMisses prometheus.Gauge

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWithRegistry 创建指标收集器并注册到指定 Registry
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 路由指标
	c.delegationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegations_total",
			Help:      "Total number of main agent delegations",
		},
		[]string{"agent", "outcome"}, // outcome: delegated, no_match, no_sub_agents
	)

	c.routingDecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_decisions_total",
			Help:      "Total number of skill matcher routing decisions",
		},
		[]string{"agent_id"},
	)

	c.routingConfidence = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "routing_confidence",
			Help:      "Confidence of skill matcher routing decisions",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	c.analysesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_analyses_total",
			Help:      "Total number of task analyses",
		},
		[]string{"category", "complexity"},
	)

	// Agent 指标
	c.agentStateTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_state_transitions_total",
			Help:      "Total number of agent state transitions",
		},
		[]string{"agent_id", "from_state", "to_state"},
	)

	// WebSocket 指标
	c.wsConnectionsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections_active",
			Help:      "Number of open WebSocket connections",
		},
	)

	c.wsMessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_messages_total",
			Help:      "Total number of WebSocket messages handled",
		},
		[]string{"status"}, // status: ok, error
	)

	// 缓存指标
	c.cacheHits = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_keyspace_hits",
			Help:      "Redis keyspace hits reported by INFO",
		},
	)

	c.cacheMisses = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_keyspace_misses",
			Help:      "Redis keyspace misses reported by INFO",
		},
	)

	// 数据库指标
	c.dbConnectionsOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🧭 路由指标记录
// =============================================================================

// RecordDelegation 记录主 Agent 的一次委派
func (c *Collector) RecordDelegation(agentName, outcome string) {
	if agentName == "" {
		agentName = "none"
	}
	c.delegationsTotal.WithLabelValues(agentName, outcome).Inc()
}

// RecordRouting 记录技能匹配的路由结果，agentID 为空表示无匹配
func (c *Collector) RecordRouting(agentID string, confidence float64) {
	if agentID == "" {
		agentID = "none"
	}
	c.routingDecisionsTotal.WithLabelValues(agentID).Inc()
	c.routingConfidence.Observe(confidence)
}

// RecordAnalysis 记录任务分析结果
func (c *Collector) RecordAnalysis(category, complexity string) {
	c.analysesTotal.WithLabelValues(category, complexity).Inc()
}

// =============================================================================
// 🎭 Agent 指标记录
// =============================================================================

// RecordAgentStateTransition 记录 Agent 状态转换
func (c *Collector) RecordAgentStateTransition(agentID, fromState, toState string) {
	c.agentStateTransitions.WithLabelValues(agentID, fromState, toState).Inc()
}

// =============================================================================
// 🔌 WebSocket 指标记录
// =============================================================================

// WebSocketOpened 连接数加一
func (c *Collector) WebSocketOpened() { c.wsConnectionsActive.Inc() }

// WebSocketClosed 连接数减一
func (c *Collector) WebSocketClosed() { c.wsConnectionsActive.Dec() }

// RecordWebSocketMessage 记录一条 WebSocket 消息的处理结果
func (c *Collector) RecordWebSocketMessage(status string) {
	c.wsMessagesTotal.WithLabelValues(status).Inc()
}

// =============================================================================
// 💾 缓存与数据库指标记录
// =============================================================================

// RecordCacheStats 记录 Redis 累计命中与未命中
func (c *Collector) RecordCacheStats(hits, misses int64) {
	c.cacheHits.Set(float64(hits))
	c.cacheMisses.Set(float64(misses))
}

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
