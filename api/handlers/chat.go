package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/agent"
	"github.com/BaSui01/agentrouter/api"
	"github.com/BaSui01/agentrouter/internal/store"
	"github.com/BaSui01/agentrouter/types"
)

const defaultSenderID = "default-user"

// =============================================================================
// 💬 聊天接口 Handler
// =============================================================================

// ChatHandler 处理聊天消息与会话
type ChatHandler struct {
	store        ChatStore
	orchestrator Processor
	registry     *agent.Registry
	logger       *zap.Logger
}

// NewChatHandler 创建聊天处理器；store 为 nil 时所有路由返回 503
func NewChatHandler(chats ChatStore, orchestrator Processor, registry *agent.Registry, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		store:        chats,
		orchestrator: orchestrator,
		registry:     registry,
		logger:       logger.With(zap.String("component", "chat_handler")),
	}
}

// Register mounts the chat and conversation routes on mux.
func (h *ChatHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chat/send", h.HandleSend)
	mux.HandleFunc("GET /api/v1/chat/conversations", h.listConversations(20))
	mux.HandleFunc("GET /api/v1/chat/conversations/{id}/messages", h.HandleMessages)
	mux.HandleFunc("GET /conversations", h.listConversations(defaultLimit))
	mux.HandleFunc("POST /conversations", h.HandleCreateConversation)
	mux.HandleFunc("GET /conversations/{id}", h.HandleGetConversation)
}

// HandleSend 处理一条用户消息并保存问答
// @Summary 发送消息
// @Tags 聊天
// @Accept json
// @Produce json
// @Param request body api.ChatSendRequest true "消息"
// @Success 200 {object} api.ChatSendResponse
// @Failure 400 {object} Response "无效请求"
// @Failure 404 {object} Response "会话不存在"
// @Router /api/v1/chat/send [post]
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		storageUnavailable(w, h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.ChatSendRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Content == "" {
		WriteError(w, types.NewInvalidRequestError("content is required"), h.logger)
		return
	}

	senderType, apiErr := parseSenderType(req.SenderType)
	if apiErr != nil {
		WriteError(w, apiErr, h.logger)
		return
	}
	senderID := req.SenderID
	if senderID == "" {
		senderID = senderFrom(r)
	}
	if senderID == "" {
		senderID = defaultSenderID
	}

	conv := &store.Conversation{UserID: senderID, Title: types.Title(req.Content)}
	if req.ConversationID != "" {
		existing, err := h.store.GetConversation(r.Context(), req.ConversationID)
		if err != nil {
			writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
			return
		}
		conv = existing
	}

	msg := types.NewMessage(req.Content,
		types.WithConversationID(conv.ID),
		types.WithSender(senderType, senderID),
	)
	d, err := h.orchestrator.Process(r.Context(), msg)
	if err != nil {
		writeInternal(w, "message processing failed", err, h.logger)
		return
	}

	userMsg := &store.ChatMessage{
		ID:          msg.ID,
		SenderType:  string(msg.SenderType),
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		MessageType: string(msg.MessageType),
	}
	reply := h.replyMessage(d)

	if err := h.store.SaveExchange(r.Context(), conv, userMsg, reply); err != nil {
		writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
		return
	}

	h.logger.Debug("chat exchange stored",
		zap.String("conversation_id", conv.ID),
		zap.String("agent", d.AgentUsed),
	)

	WriteData(w, api.ChatSendResponse{
		Success:        true,
		MessageID:      reply.ID,
		ConversationID: conv.ID,
		Response:       d.Response,
		AgentUsed:      d.UsedBy(),
		Timestamp:      time.Now().UTC(),
	})
}

// HandleMessages 分页列出会话消息
// @Summary 会话消息
// @Tags 聊天
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} api.MessagesResponse
// @Failure 404 {object} Response "会话不存在"
// @Router /api/v1/chat/conversations/{id}/messages [get]
func (h *ChatHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		storageUnavailable(w, h.logger)
		return
	}
	limit, offset, ok := pageParams(w, r, 50, h.logger)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if _, err := h.store.GetConversation(r.Context(), id); err != nil {
		writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
		return
	}

	msgs, total, err := h.store.ListMessages(r.Context(), id, store.Page{Offset: offset, Limit: limit})
	if err != nil {
		writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
		return
	}

	WriteData(w, api.MessagesResponse{
		Messages:   toMessageViews(msgs),
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	})
}

// listConversations 分页列出会话，defLimit 为默认页大小
// @Summary 会话列表
// @Tags 聊天
// @Produce json
// @Success 200 {object} api.ConversationsResponse
// @Router /conversations [get]
func (h *ChatHandler) listConversations(defLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			storageUnavailable(w, h.logger)
			return
		}
		limit, offset, ok := pageParams(w, r, defLimit, h.logger)
		if !ok {
			return
		}

		convs, total, err := h.store.ListConversations(r.Context(), store.Page{Offset: offset, Limit: limit})
		if err != nil {
			writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
			return
		}

		resp := api.ConversationsResponse{
			Conversations: make([]api.Conversation, 0, len(convs)),
			TotalCount:    total,
			Limit:         limit,
			Offset:        offset,
		}
		for i := range convs {
			resp.Conversations = append(resp.Conversations, toConversationView(&convs[i]))
		}
		WriteData(w, resp)
	}
}

// HandleCreateConversation 创建空会话
// @Summary 创建会话
// @Tags 聊天
// @Produce json
// @Param title query string true "会话标题"
// @Success 200 {object} api.Conversation
// @Router /conversations [post]
func (h *ChatHandler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		storageUnavailable(w, h.logger)
		return
	}
	title, ok := requireQuery(w, r, "title", h.logger)
	if !ok {
		return
	}

	conv := &store.Conversation{Title: title, UserID: senderFrom(r)}
	if err := h.store.CreateConversation(r.Context(), conv); err != nil {
		writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
		return
	}
	WriteData(w, toConversationView(conv))
}

// HandleGetConversation 返回会话及其消息
// @Summary 会话详情
// @Tags 聊天
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} api.ConversationDetail
// @Failure 404 {object} Response "会话不存在"
// @Router /conversations/{id} [get]
func (h *ChatHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		storageUnavailable(w, h.logger)
		return
	}
	limit, offset, ok := pageParams(w, r, 50, h.logger)
	if !ok {
		return
	}

	conv, err := h.store.GetConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
		return
	}
	msgs, _, err := h.store.ListMessages(r.Context(), conv.ID, store.Page{Offset: offset, Limit: limit})
	if err != nil {
		writeStoreError(w, err, types.ErrConversationNotFound, "conversation", h.logger)
		return
	}

	WriteData(w, api.ConversationDetail{
		Conversation: toConversationView(conv),
		Messages:     toMessageViews(msgs),
	})
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// replyMessage 构造 Agent 回复记录
func (h *ChatHandler) replyMessage(d agent.Delegation) *store.ChatMessage {
	reply := &store.ChatMessage{
		SenderType:  string(types.SenderMainAgent),
		SenderID:    agent.MainAgentID,
		Content:     d.Response,
		MessageType: string(types.MessageTypeResponse),
	}
	if main := h.registry.Main(); main != nil {
		reply.SenderID = main.ID()
	}
	if d.Delegated() {
		reply.SenderType = string(types.SenderSubAgent)
		reply.SenderID = d.AgentID
		reply.AgentUsed = d.UsedBy()
	}
	return reply
}

func parseSenderType(s string) (types.SenderType, *types.Error) {
	switch types.SenderType(s) {
	case "":
		return types.SenderUser, nil
	case types.SenderUser, types.SenderMainAgent, types.SenderSubAgent:
		return types.SenderType(s), nil
	default:
		return "", types.NewInvalidRequestError("sender_type must be one of user, main_agent, sub_agent")
	}
}

func toConversationView(c *store.Conversation) api.Conversation {
	return api.Conversation{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMessageViews(msgs []store.ChatMessage) []api.ChatMessage {
	out := make([]api.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, api.ChatMessage{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderType:     m.SenderType,
			SenderID:       m.SenderID,
			Content:        m.Content,
			MessageType:    m.MessageType,
			AgentUsed:      m.AgentUsed,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out
}
