package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/agent"
	"github.com/BaSui01/agentrouter/agent/activity"
	"github.com/BaSui01/agentrouter/api"
	"github.com/BaSui01/agentrouter/internal/store"
	"github.com/BaSui01/agentrouter/types"
)

// System identity reported by / and /config.
const (
	SystemName   = "AI Agent Chat System"
	RootBanner   = "AgentRouter backend LIVE"
	defaultLimit = 10
	pingTimeout  = 2 * time.Second
)

// ActivitySource 提供委派日志与概览，由 activity.Tracker 实现
type ActivitySource interface {
	Logs(ctx context.Context, agentID string, limit int) ([]activity.Entry, error)
	Summary(ctx context.Context) (activity.Summary, error)
}

// ConversationCounter 统计活跃会话
type ConversationCounter interface {
	CountConversations(ctx context.Context, status string) (int64, error)
}

// Pinger 探测存储连通性
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemConfig 聚合 SystemHandler 的可选依赖
type SystemConfig struct {
	Version       string
	Activity      ActivitySource
	Conversations ConversationCounter // nil 表示未配置数据库
	Database      Pinger              // nil 表示未配置数据库
	Requests      *RequestStats
}

// SystemHandler 处理统计、活动、性能、配置与日志端点
type SystemHandler struct {
	registry *agent.Registry
	cfg      SystemConfig
	proc     *process.Process
	logger   *zap.Logger
}

// NewSystemHandler creates a system handler.
func NewSystemHandler(registry *agent.Registry, cfg SystemConfig, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Requests == nil {
		cfg.Requests = &RequestStats{}
	}
	h := &SystemHandler{
		registry: registry,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "system_handler")),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		h.logger.Warn("process sampling unavailable, falling back to runtime stats", zap.Error(err))
	} else {
		h.proc = proc
	}
	return h
}

// Register mounts the system routes on mux.
func (h *SystemHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /stats", h.HandleStats)
	mux.HandleFunc("GET /activity", h.HandleActivity)
	mux.HandleFunc("GET /performance", h.HandlePerformance)
	mux.HandleFunc("GET /config", h.HandleConfig)
	mux.HandleFunc("GET /logs", h.HandleLogs)
	mux.HandleFunc("GET /logs/agents/{id}", h.HandleAgentLogs)
}

// HandleRoot returns the liveness banner.
func (h *SystemHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	WriteData(w, api.MessageResponse{Message: RootBanner})
}

// HandleStats summarises the registry
// @Summary System statistics
// @Tags system
// @Produce json
// @Success 200 {object} api.StatsResponse
// @Router /stats [get]
func (h *SystemHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	subs := h.registry.SubAgents()
	resp := api.StatsResponse{
		TotalAgents: len(subs) + 1,
		Timestamp:   time.Now().UTC(),
	}
	if main := h.registry.Main(); main != nil {
		resp.MainAgentStatus = string(main.Status())
	}
	for _, a := range subs {
		if a.Status() == agent.StatusActive {
			resp.ActiveAgents++
		}
		resp.TotalSkills += len(a.Skills())
	}
	WriteData(w, resp)
}

// HandleActivity reports delegation activity
// @Summary System activity
// @Tags system
// @Produce json
// @Success 200 {object} api.ActivityResponse
// @Router /activity [get]
func (h *SystemHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	var resp api.ActivityResponse

	if h.cfg.Activity != nil {
		sum, err := h.cfg.Activity.Summary(r.Context())
		if err != nil {
			writeInternal(w, "activity unavailable", err, h.logger)
			return
		}
		resp.RecentTasksProcessed = sum.RecentTasksProcessed
		resp.LastActivity = sum.LastActivity
		resp.SystemUptime = sum.Uptime.Round(time.Second).String()
	}

	if h.cfg.Conversations != nil {
		n, err := h.cfg.Conversations.CountConversations(r.Context(), store.ConversationActive)
		if err != nil {
			h.logger.Warn("count conversations failed", zap.Error(err))
		} else {
			resp.ActiveConversations = n
		}
	}

	WriteData(w, resp)
}

// HandlePerformance samples process statistics
// @Summary System performance
// @Tags system
// @Produce json
// @Success 200 {object} api.PerformanceResponse
// @Router /performance [get]
func (h *SystemHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	resp := api.PerformanceResponse{
		ResponseTimeMS:    float64(h.cfg.Requests.AverageResponseTime()) / float64(time.Millisecond),
		ActiveConnections: h.cfg.Requests.ActiveConnections(),
		Goroutines:        runtime.NumGoroutine(),
		Timestamp:         time.Now().UTC(),
	}

	sampled := false
	if h.proc != nil {
		if cpu, err := h.proc.PercentWithContext(r.Context(), 0); err == nil {
			resp.CPUUsagePercent = cpu
		}
		if mem, err := h.proc.MemoryInfoWithContext(r.Context()); err == nil {
			resp.MemoryUsageMB = bytesToMB(mem.RSS)
			sampled = true
		}
	}
	if !sampled {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		resp.MemoryUsageMB = bytesToMB(ms.Sys)
	}

	WriteData(w, resp)
}

// HandleConfig describes the running system
// @Summary System configuration
// @Tags system
// @Produce json
// @Success 200 {object} api.ConfigResponse
// @Router /config [get]
func (h *SystemHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	resp := api.ConfigResponse{
		SystemName:         SystemName,
		Version:            h.cfg.Version,
		MainAgentID:        agent.MainAgentID,
		TotalSubAgents:     len(h.registry.SubAgents()),
		SupportedProtocols: []string{"REST", "WebSocket"},
	}
	if main := h.registry.Main(); main != nil {
		resp.MainAgentID = main.ID()
	}
	if h.cfg.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		resp.DatabaseConnected = h.cfg.Database.Ping(ctx) == nil
	}
	WriteData(w, resp)
}

// HandleLogs returns recent delegations across agents
// @Summary System logs
// @Tags system
// @Produce json
// @Param limit query int false "Maximum entries" default(10)
// @Success 200 {object} api.LogsResponse
// @Router /logs [get]
func (h *SystemHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	h.writeLogs(w, r, "")
}

// HandleAgentLogs returns recent delegations to one agent
// @Summary Agent logs
// @Tags system
// @Produce json
// @Param id path string true "Agent ID"
// @Param limit query int false "Maximum entries" default(10)
// @Success 200 {object} api.LogsResponse
// @Failure 404 {object} Response "Agent not found"
// @Router /logs/agents/{id} [get]
func (h *SystemHandler) HandleAgentLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.registry.Get(id); !ok {
		WriteError(w, types.NewNotFoundError(types.ErrAgentNotFound, "Agent not found"), h.logger)
		return
	}
	h.writeLogs(w, r, id)
}

func (h *SystemHandler) writeLogs(w http.ResponseWriter, r *http.Request, agentID string) {
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		writeInternal(w, "invalid limit", err, h.logger)
		return
	}

	resp := api.LogsResponse{AgentID: agentID, Logs: make([]api.LogEntry, 0), Limit: limit}
	if h.cfg.Activity != nil {
		entries, err := h.cfg.Activity.Logs(r.Context(), agentID, limit)
		if err != nil {
			writeInternal(w, "logs unavailable", err, h.logger)
			return
		}
		for _, e := range entries {
			resp.Logs = append(resp.Logs, api.LogEntry{
				ID:        e.ID,
				AgentID:   e.AgentID,
				AgentName: e.AgentName,
				Content:   e.Content,
				Timestamp: e.Timestamp,
			})
		}
	}
	resp.TotalCount = len(resp.Logs)
	WriteData(w, resp)
}

func bytesToMB(b uint64) float64 {
	return float64(b) / (1 << 20)
}
