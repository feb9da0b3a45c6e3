package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.delegationsTotal)
	assert.NotNil(t, collector.routingDecisionsTotal)
	assert.NotNil(t, collector.wsConnectionsActive)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), nil)

	collector.RecordHTTPRequest("GET", "/agents", 200, 100*time.Millisecond, 0, 2048)
	collector.RecordHTTPRequest("GET", "/agents", 204, 50*time.Millisecond, 0, 0)
	collector.RecordHTTPRequest("GET", "/agents/x", 404, 5*time.Millisecond, 0, 64)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/agents", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/agents/x", "4xx")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.httpRequestDuration))
}

func TestCollector_RecordDelegation(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordDelegation("Frontend Tasks Agent", "delegated")
	collector.RecordDelegation("Frontend Tasks Agent", "delegated")
	collector.RecordDelegation("", "no_match")

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.delegationsTotal.WithLabelValues("Frontend Tasks Agent", "delegated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.delegationsTotal.WithLabelValues("none", "no_match")))
}

func TestCollector_RecordRoutingAndAnalysis(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRouting("sub-agent-008", 0.4)
	collector.RecordRouting("", 0)
	collector.RecordAnalysis("security", "low")

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.routingDecisionsTotal.WithLabelValues("sub-agent-008")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.routingDecisionsTotal.WithLabelValues("none")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.routingConfidence))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.analysesTotal.WithLabelValues("security", "low")))
}

func TestCollector_AgentStateTransition(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordAgentStateTransition("sub-agent-001", "active", "busy")

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.agentStateTransitions.WithLabelValues("sub-agent-001", "active", "busy")))
}

func TestCollector_WebSocket(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.WebSocketOpened()
	collector.WebSocketOpened()
	collector.WebSocketClosed()
	collector.RecordWebSocketMessage("ok")
	collector.RecordWebSocketMessage("error")

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.wsConnectionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.wsMessagesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.wsMessagesTotal.WithLabelValues("error")))
}

func TestCollector_CacheAndDatabase(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordCacheStats(42, 7)
	collector.RecordDBConnections("postgres", 10, 5)

	assert.Equal(t, 42.0, testutil.ToFloat64(collector.cacheHits))
	assert.Equal(t, 7.0, testutil.ToFloat64(collector.cacheMisses))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("postgres")))
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.dbConnectionsIdle.WithLabelValues("postgres")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)
			collector.RecordDelegation("Testing Agent", "delegated")
			collector.WebSocketOpened()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/test", "2xx")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.delegationsTotal.WithLabelValues("Testing Agent", "delegated")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.wsConnectionsActive))
}

func TestCollector_CustomRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollectorWithRegistry("router", registry, zap.NewNop())

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 0, 0)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "router_http_requests_total")

	// 同一 registry 上重复注册会 panic，独立 registry 则不会
	assert.NotPanics(t, func() {
		NewCollectorWithRegistry("router", prometheus.NewRegistry(), zap.NewNop())
	})
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(201))
	assert.Equal(t, "3xx", statusCode(302))
	assert.Equal(t, "4xx", statusCode(429))
	assert.Equal(t, "5xx", statusCode(503))
	assert.Equal(t, "unknown", statusCode(0))
}
