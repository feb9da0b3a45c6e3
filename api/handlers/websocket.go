package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/agentrouter/api"
	"github.com/BaSui01/agentrouter/types"
)

// Greeting 连接建立后发送的第一帧内容
const Greeting = "Main Agent Connected!"

// WebSocket 帧处理结果，用于指标
const (
	wsOK       = "ok"
	wsRejected = "rejected"
	wsFailed   = "error"
)

// WebSocketConfig WebSocket 端点配置
type WebSocketConfig struct {
	// ReadLimit 单帧最大字节数
	ReadLimit int64
	// OriginPatterns 允许的跨域 Origin 主机模式（path.Match 语法），同源总是允许
	OriginPatterns []string
	// PingInterval 心跳间隔，0 关闭心跳
	PingInterval time.Duration
	// WriteTimeout 单帧写超时
	WriteTimeout time.Duration
}

// DefaultWebSocketConfig returns the default endpoint settings.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		ReadLimit:    64 << 10,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// =============================================================================
// 🔌 WebSocket Handler
// =============================================================================

// WebSocketHandler 把每个文本帧交给主 Agent 并回写结果
type WebSocketHandler struct {
	orchestrator Processor
	metrics      Metrics
	cfg          WebSocketConfig
	logger       *zap.Logger
}

// NewWebSocketHandler creates the /ws handler.
func NewWebSocketHandler(orchestrator Processor, metrics Metrics, cfg WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultWebSocketConfig()
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = def.ReadLimit
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	return &WebSocketHandler{
		orchestrator: orchestrator,
		metrics:      metricsOrNop(metrics),
		cfg:          cfg,
		logger:       logger.With(zap.String("component", "websocket")),
	}
}

// Register mounts /ws on mux.
func (h *WebSocketHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the request and serves frames until either side
// closes.
// @Summary WebSocket chat
// @Tags websocket
// @Router /ws [get]
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 长连接不受 http.Server 的读写超时约束
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.OriginPatterns,
	})
	if err != nil {
		// Accept 已写出错误响应
		h.logger.Debug("websocket upgrade rejected", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.cfg.ReadLimit)

	h.metrics.WebSocketOpened()
	defer h.metrics.WebSocketClosed()

	session := uuid.NewString()
	log := h.logger.With(zap.String("session", session))
	log.Debug("websocket connected", zap.String("remote", r.RemoteAddr))

	// 帧为 api.WSFrame 或 api.WSResponse
	out := make(chan any, 8)
	out <- api.WSFrame{
		Type:      api.FrameConnection,
		Message:   Greeting,
		Timestamp: time.Now().UTC(),
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		// 读循环失败后仍要写出已排队的帧，写循环只随请求上下文结束
		return h.writeLoop(r.Context(), conn, out)
	})
	g.Go(func() error {
		defer close(out)
		return h.readLoop(ctx, conn, out, session, senderFrom(r))
	})

	err = g.Wait()
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway:
		log.Debug("websocket disconnected", zap.Int("status", int(status)))
	case errors.Is(err, context.Canceled):
		log.Debug("websocket cancelled")
	case errors.Is(err, errProcessing):
		conn.Close(websocket.StatusInternalError, "processing failed")
		return
	case err != nil:
		log.Warn("websocket closed with error", zap.Error(err))
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

var errProcessing = errors.New("message processing failed")

func (h *WebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- any, session, authUser string) error {
	send := func(f any) error {
		select {
		case out <- f:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	reject := func(content string) error {
		h.metrics.RecordWebSocketMessage(wsRejected)
		return send(api.WSFrame{Type: api.FrameError, Content: content, Timestamp: time.Now().UTC()})
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			if err := reject("binary frames are not supported"); err != nil {
				return err
			}
			continue
		}

		in := decodeInbound(data)
		if strings.TrimSpace(in.Content) == "" {
			if err := reject("content is required"); err != nil {
				return err
			}
			continue
		}
		senderType, apiErr := parseSenderType(in.SenderType)
		if apiErr != nil {
			if err := reject(apiErr.Message); err != nil {
				return err
			}
			continue
		}
		senderID := in.SenderID
		if authUser != "" {
			senderID = authUser
		}

		msg := types.NewMessage(in.Content,
			types.WithConversationID(session),
			types.WithSender(senderType, senderID),
			types.WithMessageType(types.MessageType(in.MessageType)),
		)
		d, err := h.orchestrator.Process(ctx, msg)
		if err != nil {
			h.metrics.RecordWebSocketMessage(wsFailed)
			_ = send(api.WSFrame{
				Type:      api.FrameError,
				Content:   "An error occurred: " + err.Error(),
				Timestamp: time.Now().UTC(),
			})
			return errors.Join(errProcessing, err)
		}

		h.metrics.RecordWebSocketMessage(wsOK)
		if err := send(api.WSResponse{
			Type:      api.FrameResponse,
			Content:   d.Response,
			MessageID: uuid.NewString(),
			AgentUsed: d.UsedBy(),
			Timestamp: time.Now().UTC(),
		}); err != nil {
			return err
		}
	}
}

// writeLoop drains out and keeps the connection alive with pings. It
// returns nil once out is closed and drained.
func (h *WebSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan any) error {
	var tick <-chan time.Time
	if h.cfg.PingInterval > 0 {
		ticker := time.NewTicker(h.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case f, ok := <-out:
			if !ok {
				return nil
			}
			wctx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
			err := wsjson.Write(wctx, conn, f)
			cancel()
			if err != nil {
				return err
			}
		case <-tick:
			pctx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// decodeInbound accepts a JSON frame or raw text. JSON without a content
// field falls back to the raw frame.
func decodeInbound(data []byte) api.WSInbound {
	var in api.WSInbound
	if err := json.Unmarshal(data, &in); err != nil || in.Content == "" {
		in.Content = string(data)
	}
	return in
}
