package api

import (
	"time"

	"github.com/BaSui01/agentrouter/agent/analysis"
)

// =============================================================================
// 🤖 Agent 类型
// =============================================================================

// AgentInfo 描述一个 Agent 的对外视图。
// @Description Agent 信息
type AgentInfo struct {
	ID          string   `json:"id" example:"sub-agent-001"`
	Name        string   `json:"name" example:"Frontend Tasks Agent"`
	Description string   `json:"description"`
	Status      string   `json:"status" example:"active"`
	Skills      []string `json:"skills"`
}

// MainAgentInfo 主 Agent 视图，附带当前任务数
type MainAgentInfo struct {
	AgentInfo
	ActiveTasks int `json:"active_tasks"`
}

// AgentsResponse GET /agents
type AgentsResponse struct {
	MainAgent MainAgentInfo `json:"main_agent"`
	SubAgents []AgentInfo   `json:"sub_agents"`
}

// AgentType 一种 Agent 类别
type AgentType struct {
	Type        string `json:"type" example:"main"`
	Description string `json:"description"`
}

// AgentTypesResponse GET /agents/types
type AgentTypesResponse struct {
	AgentTypes []AgentType `json:"agent_types"`
	TotalTypes int         `json:"total_types"`
}

// AgentSkillsResponse GET /agents/{id}/skills
type AgentSkillsResponse struct {
	AgentID   string   `json:"agent_id"`
	AgentName string   `json:"agent_name"`
	Skills    []string `json:"skills"`
}

// WorkloadResponse GET /agents/{id}/workload
type WorkloadResponse struct {
	AgentID             string     `json:"agent_id"`
	AgentName           string     `json:"agent_name"`
	CurrentTasks        int        `json:"current_tasks"`
	Status              string     `json:"status"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
}

// StatusUpdateResponse PUT /agents/{id}/status
type StatusUpdateResponse struct {
	AgentID   string `json:"agent_id"`
	NewStatus string `json:"new_status"`
	Message   string `json:"message"`
}

// =============================================================================
// 🧭 路由与处理
// =============================================================================

// AgentRef 路由结果中的 Agent 引用
type AgentRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RouteResponse POST /agents/route
// 无匹配时 BestAgent 为 null，Message 说明原因。
type RouteResponse struct {
	TaskContent   string    `json:"task_content"`
	BestAgent     *AgentRef `json:"best_agent"`
	Confidence    float64   `json:"confidence"`
	SkillsMatched []string  `json:"skills_matched,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// ProcessResponse POST /agents/process
type ProcessResponse struct {
	OriginalTask string  `json:"original_task"`
	ProcessedBy  *string `json:"processed_by"`
	Response     string  `json:"response"`
}

// MainAgentResponse POST /agents/main
type MainAgentResponse struct {
	OriginalContent string    `json:"original_content"`
	ProcessedBy     *string   `json:"processed_by"`
	Response        string    `json:"response"`
	Timestamp       time.Time `json:"timestamp"`
}

// AgentTaskResponse 专用路由（/agents/frontend 等）的返回
type AgentTaskResponse struct {
	TaskContent string    `json:"task_content"`
	ProcessedBy string    `json:"processed_by"`
	Response    string    `json:"response"`
	Timestamp   time.Time `json:"timestamp"`
}

// =============================================================================
// 🧠 技能与分析
// =============================================================================

// SkillInfo 一个 Agent 的一项技能
type SkillInfo struct {
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	SkillName   string `json:"skill_name"`
	Description string `json:"description"`
}

// SkillsResponse GET /skills
type SkillsResponse struct {
	Skills []SkillInfo `json:"skills"`
}

// CategorizedSkill 分类视图中的技能
type CategorizedSkill struct {
	Skill     string `json:"skill"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

// SkillCategoriesResponse GET /skills/categories
type SkillCategoriesResponse struct {
	Categories map[string][]CategorizedSkill `json:"categories"`
}

// AnalyzeResponse POST /analyze/task
type AnalyzeResponse struct {
	TaskContent string                `json:"task_content"`
	Analysis    analysis.TaskAnalysis `json:"analysis"`
}

// =============================================================================
// 📊 系统信息
// =============================================================================

// StatsResponse GET /stats
type StatsResponse struct {
	TotalAgents     int       `json:"total_agents"`
	ActiveAgents    int       `json:"active_agents"`
	MainAgentStatus string    `json:"main_agent_status"`
	TotalSkills     int       `json:"total_skills"`
	Timestamp       time.Time `json:"timestamp"`
}

// ActivityResponse GET /activity
type ActivityResponse struct {
	RecentTasksProcessed int64      `json:"recent_tasks_processed"`
	ActiveConversations  int64      `json:"active_conversations"`
	LastActivity         *time.Time `json:"last_activity"`
	SystemUptime         string     `json:"system_uptime"`
}

// PerformanceResponse GET /performance
type PerformanceResponse struct {
	ResponseTimeMS    float64   `json:"response_time_ms"`
	ActiveConnections int64     `json:"active_connections"`
	CPUUsagePercent   float64   `json:"cpu_usage_percent"`
	MemoryUsageMB     float64   `json:"memory_usage_mb"`
	Goroutines        int       `json:"goroutines"`
	Timestamp         time.Time `json:"timestamp"`
}

// ConfigResponse GET /config
type ConfigResponse struct {
	SystemName         string   `json:"system_name"`
	Version            string   `json:"version"`
	MainAgentID        string   `json:"main_agent_id"`
	TotalSubAgents     int      `json:"total_sub_agents"`
	SupportedProtocols []string `json:"supported_protocols"`
	DatabaseConnected  bool     `json:"database_connected"`
}

// LogEntry 一条委派日志
type LogEntry struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// LogsResponse GET /logs 与 GET /logs/agents/{id}
type LogsResponse struct {
	AgentID    string     `json:"agent_id,omitempty"`
	Logs       []LogEntry `json:"logs"`
	Limit      int        `json:"limit"`
	TotalCount int        `json:"total_count"`
}

// =============================================================================
// 💬 聊天与会话
// =============================================================================

// ChatSendRequest POST /api/v1/chat/send
type ChatSendRequest struct {
	Content        string `json:"content" binding:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
	SenderType     string `json:"sender_type,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
}

// ChatSendResponse 一次对话交换的结果
type ChatSendResponse struct {
	Success        bool      `json:"success"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Response       string    `json:"response"`
	AgentUsed      *string   `json:"agent_used"`
	Timestamp      time.Time `json:"timestamp"`
}

// Conversation 会话视图
type Conversation struct {
	ID        string    `json:"conversation_id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationsResponse 会话分页列表
type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	TotalCount    int64          `json:"total_count"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
}

// ChatMessage 会话中的消息视图
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderType     string    `json:"sender_type"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	AgentUsed      *string   `json:"agent_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessagesResponse 消息分页列表
type MessagesResponse struct {
	Messages   []ChatMessage `json:"messages"`
	TotalCount int64         `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// ConversationDetail GET /conversations/{id}
type ConversationDetail struct {
	Conversation
	Messages []ChatMessage `json:"messages"`
}

// =============================================================================
// ✅ 用户与任务
// =============================================================================

// UserCreateRequest POST /api/users
type UserCreateRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// User 用户视图
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskRequest 创建与更新任务的请求体
type TaskRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description,omitempty"`
	AgentAssigned *string `json:"agent_assigned,omitempty"`
}

// Task 任务视图
type Task struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	UserID        string    `json:"user_id"`
	AgentAssigned *string   `json:"agent_assigned"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TaskCompletionResponse PATCH /api/{user_id}/tasks/{task_id}/complete
type TaskCompletionResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Completed   bool   `json:"completed"`
}

// MessageResponse 仅含提示信息的返回
type MessageResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// 🔌 WebSocket 帧
// =============================================================================

// WebSocket 帧类型
const (
	FrameConnection = "connection"
	FrameResponse   = "response"
	FrameError      = "error"
)

// WSInbound 客户端发送的 JSON 帧；非 JSON 文本按原文作为 Content。
type WSInbound struct {
	Content     string `json:"content"`
	SenderType  string `json:"sender_type,omitempty"`
	SenderID    string `json:"sender_id,omitempty"`
	MessageType string `json:"message_type,omitempty"`
}

// WSFrame 服务端发送的帧
type WSFrame struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Content   string    `json:"content,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	AgentUsed *string   `json:"agent_used,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WSResponse 回复帧，主 Agent 自己回答时 agent_used 为 null
type WSResponse struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	MessageID string    `json:"message_id"`
	AgentUsed *string   `json:"agent_used"`
	Timestamp time.Time `json:"timestamp"`
}
