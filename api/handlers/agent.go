package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/agent"
	"github.com/BaSui01/agentrouter/agent/skills"
	"github.com/BaSui01/agentrouter/api"
	"github.com/BaSui01/agentrouter/types"
)

// Processor 主 Agent 的委派入口，由 agent.Orchestrator 实现
type Processor interface {
	Process(ctx context.Context, msg types.Message) (agent.Delegation, error)
}

// DedicatedRoute 把一个专用端点绑定到一组技能标签
type DedicatedRoute struct {
	Path        string
	Label       string
	Tags        []string
	MessageType types.MessageType
}

// dedicatedRoutes 按注册顺序查找第一个拥有任一标签的子 Agent
var dedicatedRoutes = []DedicatedRoute{
	{Path: "frontend", Label: "Frontend", Tags: []string{"frontend", "ui", "nextjs"}, MessageType: "frontend-task"},
	{Path: "backend", Label: "Backend", Tags: []string{"backend", "api", "fastapi"}, MessageType: "backend-task"},
	{Path: "database", Label: "Database", Tags: []string{"database", "postgres", "sql"}, MessageType: "database-task"},
	{Path: "chat", Label: "Chat", Tags: []string{"chat", "websocket", "messaging"}, MessageType: "chat-task"},
	{Path: "auth", Label: "Auth", Tags: []string{"auth", "authentication", "jwt", "security"}, MessageType: "auth-task"},
	{Path: "devops", Label: "DevOps", Tags: []string{"devops", "deployment", "docker", "railway"}, MessageType: "devops-task"},
	{Path: "test", Label: "Test", Tags: []string{"test", "testing", "qa"}, MessageType: "test-task"},
}

// DedicatedRoutes returns the tag-routed endpoints, integration excluded.
func DedicatedRoutes() []DedicatedRoute {
	out := make([]DedicatedRoute, len(dedicatedRoutes))
	copy(out, dedicatedRoutes)
	return out
}

// =============================================================================
// 🤖 Agent Handler
// =============================================================================

// AgentHandler 处理 Agent 查询、路由与委派
type AgentHandler struct {
	registry     *agent.Registry
	orchestrator Processor
	matcher      *skills.Matcher
	metrics      Metrics
	logger       *zap.Logger
}

// NewAgentHandler creates an Agent handler.
func NewAgentHandler(registry *agent.Registry, orchestrator Processor, matcher *skills.Matcher, metrics Metrics, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = skills.NewMatcher(logger)
	}
	return &AgentHandler{
		registry:     registry,
		orchestrator: orchestrator,
		matcher:      matcher,
		metrics:      metricsOrNop(metrics),
		logger:       logger.With(zap.String("component", "agent_handler")),
	}
}

// Register mounts every agent route on mux.
func (h *AgentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /agents", h.HandleListAgents)
	mux.HandleFunc("GET /agents/types", h.HandleAgentTypes)
	mux.HandleFunc("GET /agents/{id}", h.HandleGetAgent)
	mux.HandleFunc("GET /agents/{id}/skills", h.HandleAgentSkills)
	mux.HandleFunc("GET /agents/{id}/workload", h.HandleAgentWorkload)
	mux.HandleFunc("PUT /agents/{id}/status", h.HandleUpdateStatus)
	mux.HandleFunc("POST /agents/route", h.HandleRoute)
	mux.HandleFunc("POST /agents/process", h.HandleProcess)
	mux.HandleFunc("POST /agents/main", h.HandleMain)
	mux.HandleFunc("POST /agents/integration", h.HandleIntegration)
	for _, route := range dedicatedRoutes {
		mux.HandleFunc("POST /agents/"+route.Path, h.HandleDedicated(route))
	}
}

// =============================================================================
// 📋 查询
// =============================================================================

// HandleListAgents lists the main agent and every sub-agent
// @Summary List agents
// @Tags agent
// @Produce json
// @Success 200 {object} api.AgentsResponse
// @Router /agents [get]
func (h *AgentHandler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	resp := api.AgentsResponse{SubAgents: make([]api.AgentInfo, 0)}
	if main := h.registry.Main(); main != nil {
		resp.MainAgent = api.MainAgentInfo{AgentInfo: toAgentInfo(main)}
	}
	for _, a := range h.registry.SubAgents() {
		resp.SubAgents = append(resp.SubAgents, toAgentInfo(a))
	}
	WriteData(w, resp)
}

// HandleAgentTypes lists the agent kinds
// @Summary Agent types
// @Tags agent
// @Produce json
// @Success 200 {object} api.AgentTypesResponse
// @Router /agents/types [get]
func (h *AgentHandler) HandleAgentTypes(w http.ResponseWriter, r *http.Request) {
	kinds := []agent.Kind{agent.KindMain, agent.KindSub}
	resp := api.AgentTypesResponse{AgentTypes: make([]api.AgentType, 0, len(kinds))}
	for _, k := range kinds {
		resp.AgentTypes = append(resp.AgentTypes, api.AgentType{
			Type:        string(k),
			Description: agent.KindDescription(k),
		})
	}
	resp.TotalTypes = len(resp.AgentTypes)
	WriteData(w, resp)
}

// HandleGetAgent returns one agent
// @Summary Get agent
// @Tags agent
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} api.AgentInfo
// @Failure 404 {object} Response "Agent not found"
// @Router /agents/{id} [get]
func (h *AgentHandler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteData(w, toAgentInfo(a))
}

// HandleAgentSkills returns one agent's skill tags
// @Summary Agent skills
// @Tags agent
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} api.AgentSkillsResponse
// @Failure 404 {object} Response "Agent not found"
// @Router /agents/{id}/skills [get]
func (h *AgentHandler) HandleAgentSkills(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteData(w, api.AgentSkillsResponse{
		AgentID:   a.ID(),
		AgentName: a.Name(),
		Skills:    a.Skills(),
	})
}

// HandleAgentWorkload reports an agent's workload. Agents answer
// synchronously, so there is never queued work.
// @Summary Agent workload
// @Tags agent
// @Produce json
// @Param id path string true "Agent ID"
// @Success 200 {object} api.WorkloadResponse
// @Failure 404 {object} Response "Agent not found"
// @Router /agents/{id}/workload [get]
func (h *AgentHandler) HandleAgentWorkload(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteData(w, api.WorkloadResponse{
		AgentID:   a.ID(),
		AgentName: a.Name(),
		Status:    string(a.Status()),
	})
}

// HandleUpdateStatus sets an agent's status
// @Summary Update agent status
// @Tags agent
// @Produce json
// @Param id path string true "Agent ID"
// @Param status query string true "active, inactive or busy"
// @Success 200 {object} api.StatusUpdateResponse
// @Failure 400 {object} Response "Invalid status"
// @Failure 404 {object} Response "Agent not found"
// @Router /agents/{id}/status [put]
func (h *AgentHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, ok := requireQuery(w, r, "status", h.logger)
	if !ok {
		return
	}

	var prev agent.Status
	if a, found := h.registry.Get(id); found {
		prev = a.Status()
	}

	a, err := h.registry.SetStatus(id, status)
	if err != nil {
		var invalid agent.ErrInvalidStatus
		switch {
		case errors.Is(err, agent.ErrAgentNotFound):
			WriteError(w, types.NewNotFoundError(types.ErrAgentNotFound, "Agent not found"), h.logger)
		case errors.As(err, &invalid):
			WriteError(w, types.NewError(types.ErrInvalidStatus, invalid.Error()).WithHTTPStatus(http.StatusBadRequest), h.logger)
		default:
			writeInternal(w, "status update failed", err, h.logger)
		}
		return
	}

	h.metrics.RecordAgentStateTransition(a.ID(), string(prev), string(a.Status()))
	WriteData(w, api.StatusUpdateResponse{
		AgentID:   a.ID(),
		NewStatus: string(a.Status()),
		Message:   "Status updated for agent " + a.Name(),
	})
}

// =============================================================================
// 🧭 路由与委派
// =============================================================================

// HandleRoute picks the best sub-agent for content by normalised skill match
// @Summary Route task
// @Tags agent
// @Produce json
// @Param content query string true "Task content"
// @Success 200 {object} api.RouteResponse
// @Router /agents/route [post]
func (h *AgentHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	content, ok := requireQuery(w, r, "content", h.logger)
	if !ok {
		return
	}

	best, confidence, found := skills.FindBest(h.matcher, content, h.registry.SubAgents())
	if !found {
		h.metrics.RecordRouting("", 0)
		WriteData(w, api.RouteResponse{
			TaskContent: content,
			Message:     "No suitable agent found for this task",
		})
		return
	}

	h.metrics.RecordRouting(best.ID(), confidence)
	WriteData(w, api.RouteResponse{
		TaskContent: content,
		BestAgent: &api.AgentRef{
			ID:          best.ID(),
			Name:        best.Name(),
			Description: best.Description(),
		},
		Confidence:    confidence,
		SkillsMatched: best.Skills(),
	})
}

// HandleProcess runs content through the main agent
// @Summary Process task
// @Tags agent
// @Produce json
// @Param content query string true "Task content"
// @Success 200 {object} api.ProcessResponse
// @Router /agents/process [post]
func (h *AgentHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	content, ok := requireQuery(w, r, "content", h.logger)
	if !ok {
		return
	}
	d, ok := h.delegate(w, r, content)
	if !ok {
		return
	}
	WriteData(w, api.ProcessResponse{
		OriginalTask: content,
		ProcessedBy:  d.UsedBy(),
		Response:     d.Response,
	})
}

// HandleMain runs content through the main agent
// @Summary Main agent
// @Tags agent
// @Produce json
// @Param content query string true "Content"
// @Success 200 {object} api.MainAgentResponse
// @Router /agents/main [post]
func (h *AgentHandler) HandleMain(w http.ResponseWriter, r *http.Request) {
	content, ok := requireQuery(w, r, "content", h.logger)
	if !ok {
		return
	}
	d, ok := h.delegate(w, r, content)
	if !ok {
		return
	}
	WriteData(w, api.MainAgentResponse{
		OriginalContent: content,
		ProcessedBy:     d.UsedBy(),
		Response:        d.Response,
		Timestamp:       time.Now().UTC(),
	})
}

// HandleIntegration sends system-wide tasks to the main agent
// @Summary Integration task
// @Tags agent
// @Produce json
// @Param content query string true "Task content"
// @Success 200 {object} api.AgentTaskResponse
// @Router /agents/integration [post]
func (h *AgentHandler) HandleIntegration(w http.ResponseWriter, r *http.Request) {
	content, ok := requireQuery(w, r, "content", h.logger)
	if !ok {
		return
	}
	d, ok := h.delegate(w, r, content, types.WithMessageType("integration-task"))
	if !ok {
		return
	}
	WriteData(w, api.AgentTaskResponse{
		TaskContent: content,
		ProcessedBy: h.mainName(),
		Response:    d.Response,
		Timestamp:   time.Now().UTC(),
	})
}

// HandleDedicated builds the handler for one tag-routed endpoint
// @Summary Dedicated agent task
// @Tags agent
// @Produce json
// @Param content query string true "Task content"
// @Success 200 {object} api.AgentTaskResponse
// @Failure 404 {object} Response "No agent carries the route's tags"
// @Router /agents/{frontend,backend,database,chat,auth,devops,test} [post]
func (h *AgentHandler) HandleDedicated(route DedicatedRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, ok := requireQuery(w, r, "content", h.logger)
		if !ok {
			return
		}

		a, found := h.registry.FindBySkill(route.Tags...)
		if !found {
			WriteError(w, types.NewNotFoundError(types.ErrAgentNotFound,
				fmt.Sprintf("%s agent not found", route.Label)), h.logger)
			return
		}

		msg := types.NewMessage(content,
			types.WithSender(types.SenderUser, senderFrom(r)),
			types.WithMessageType(route.MessageType),
		)
		WriteData(w, api.AgentTaskResponse{
			TaskContent: content,
			ProcessedBy: a.Name(),
			Response:    a.Respond(msg),
			Timestamp:   time.Now().UTC(),
		})
	}
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func (h *AgentHandler) lookup(w http.ResponseWriter, r *http.Request) (*agent.Agent, bool) {
	a, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		WriteError(w, types.NewNotFoundError(types.ErrAgentNotFound, "Agent not found"), h.logger)
		return nil, false
	}
	return a, true
}

func (h *AgentHandler) delegate(w http.ResponseWriter, r *http.Request, content string, opts ...types.MessageOption) (agent.Delegation, bool) {
	opts = append([]types.MessageOption{
		types.WithSender(types.SenderUser, senderFrom(r)),
		types.WithMessageType(types.MessageTypeTask),
	}, opts...)

	d, err := h.orchestrator.Process(r.Context(), types.NewMessage(content, opts...))
	if err != nil {
		writeInternal(w, "message processing failed", err, h.logger)
		return agent.Delegation{}, false
	}
	return d, true
}

func (h *AgentHandler) mainName() string {
	if main := h.registry.Main(); main != nil {
		return main.Name()
	}
	return agent.MainAgentName
}

// senderFrom returns the authenticated user, if any.
func senderFrom(r *http.Request) string {
	if id, ok := types.UserID(r.Context()); ok {
		return id
	}
	return ""
}

func toAgentInfo(a *agent.Agent) api.AgentInfo {
	info := a.Info()
	return api.AgentInfo{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		Status:      string(info.Status),
		Skills:      info.Skills,
	}
}
