package handlers

import (
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/api"
	"github.com/BaSui01/agentrouter/internal/store"
	"github.com/BaSui01/agentrouter/types"
)

const (
	maxUsernameLen   = 30
	maxTitleLen      = 255
	defaultTaskLimit = 100
)

// =============================================================================
// ✅ 用户与任务 Handler
// =============================================================================

// TaskHandler 处理用户与任务 CRUD
type TaskHandler struct {
	store  TaskStore
	logger *zap.Logger
}

// NewTaskHandler 创建任务处理器；tasks 为 nil 时所有路由返回 503
func NewTaskHandler(tasks TaskStore, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		store:  tasks,
		logger: logger.With(zap.String("component", "task_handler")),
	}
}

// Register mounts the user and task routes on mux.
func (h *TaskHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.HandleCreateUser)
	mux.HandleFunc("POST /api/{user_id}/tasks", h.HandleCreateTask)
	mux.HandleFunc("GET /api/{user_id}/tasks", h.HandleListTasks)
	mux.HandleFunc("GET /api/{user_id}/tasks/{task_id}", h.HandleGetTask)
	mux.HandleFunc("PUT /api/{user_id}/tasks/{task_id}", h.HandleUpdateTask)
	mux.HandleFunc("DELETE /api/{user_id}/tasks/{task_id}", h.HandleDeleteTask)
	mux.HandleFunc("PATCH /api/{user_id}/tasks/{task_id}/complete", h.HandleToggleComplete)
}

// HandleCreateUser 创建用户
// @Summary 创建用户
// @Tags 任务
// @Accept json
// @Produce json
// @Param request body api.UserCreateRequest true "用户"
// @Success 201 {object} api.User
// @Failure 409 {object} Response "用户名或邮箱已存在"
// @Router /api/users [post]
func (h *TaskHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		storageUnavailable(w, h.logger)
		return
	}

	var req api.UserCreateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || utf8.RuneCountInString(req.Username) > maxUsernameLen {
		WriteError(w, types.NewInvalidRequestError("username must be 1-30 characters"), h.logger)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		WriteError(w, types.NewInvalidRequestError("email is invalid"), h.logger)
		return
	}

	u := &store.User{Username: req.Username, Email: req.Email}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		writeStoreError(w, err, types.ErrUserNotFound, "user", h.logger)
		return
	}

	h.logger.Info("user created", zap.String("user_id", u.ID))
	WriteJSON(w, http.StatusCreated, api.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
}

// HandleCreateTask 为用户创建任务
// @Summary 创建任务
// @Tags 任务
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param request body api.TaskRequest true "任务"
// @Success 201 {object} api.Task
// @Failure 404 {object} Response "用户不存在"
// @Router /api/{user_id}/tasks [post]
func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	t := &store.Task{
		Title:         req.Title,
		Description:   req.Description,
		UserID:        userID,
		AgentAssigned: req.AgentAssigned,
		Status:        store.TaskPending,
	}
	if err := h.store.CreateTask(r.Context(), t); err != nil {
		writeStoreError(w, err, types.ErrTaskNotFound, "task", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, toTaskView(t))
}

// HandleListTasks 列出用户任务
// @Summary 任务列表
// @Tags 任务
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param skip query int false "跳过条数"
// @Param limit query int false "最大条数" default(100)
// @Success 200 {array} api.Task
// @Failure 404 {object} Response "用户不存在"
// @Router /api/{user_id}/tasks [get]
func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeInternal(w, "invalid skip", err, h.logger)
		return
	}
	limit, err := queryInt(r, "limit", defaultTaskLimit)
	if err != nil {
		writeInternal(w, "invalid limit", err, h.logger)
		return
	}

	tasks, err := h.store.ListTasks(r.Context(), userID, store.Page{Offset: skip, Limit: limit})
	if err != nil {
		writeStoreError(w, err, types.ErrTaskNotFound, "task", h.logger)
		return
	}

	out := make([]api.Task, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskView(&tasks[i]))
	}
	WriteData(w, out)
}

// HandleGetTask 返回单个任务
// @Summary 获取任务
// @Tags 任务
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param task_id path string true "任务 ID"
// @Success 200 {object} api.Task
// @Failure 403 {object} Response "任务不属于该用户"
// @Failure 404 {object} Response "用户或任务不存在"
// @Router /api/{user_id}/tasks/{task_id} [get]
func (h *TaskHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.ownedTask(w, r, "access")
	if !ok {
		return
	}
	WriteData(w, toTaskView(t))
}

// HandleUpdateTask 更新任务标题、描述与指派
// @Summary 更新任务
// @Tags 任务
// @Accept json
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param task_id path string true "任务 ID"
// @Param request body api.TaskRequest true "任务"
// @Success 200 {object} api.Task
// @Failure 403 {object} Response "任务不属于该用户"
// @Failure 404 {object} Response "用户或任务不存在"
// @Router /api/{user_id}/tasks/{task_id} [put]
func (h *TaskHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.ownedTask(w, r, "update")
	if !ok {
		return
	}
	req, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	updated, err := h.store.UpdateTask(r.Context(), t.ID, req.Title, req.Description, req.AgentAssigned)
	if err != nil {
		writeStoreError(w, err, types.ErrTaskNotFound, "task", h.logger)
		return
	}
	WriteData(w, toTaskView(updated))
}

// HandleDeleteTask 删除任务
// @Summary 删除任务
// @Tags 任务
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param task_id path string true "任务 ID"
// @Success 200 {object} api.MessageResponse
// @Failure 403 {object} Response "任务不属于该用户"
// @Failure 404 {object} Response "用户或任务不存在"
// @Router /api/{user_id}/tasks/{task_id} [delete]
func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.ownedTask(w, r, "delete")
	if !ok {
		return
	}
	if err := h.store.DeleteTask(r.Context(), t.ID); err != nil {
		writeStoreError(w, err, types.ErrTaskNotFound, "task", h.logger)
		return
	}
	WriteData(w, api.MessageResponse{Message: "Task deleted successfully"})
}

// HandleToggleComplete 在 completed 与 pending 之间切换
// @Summary 切换完成状态
// @Tags 任务
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param task_id path string true "任务 ID"
// @Success 200 {object} api.TaskCompletionResponse
// @Failure 403 {object} Response "任务不属于该用户"
// @Failure 404 {object} Response "用户或任务不存在"
// @Router /api/{user_id}/tasks/{task_id}/complete [patch]
func (h *TaskHandler) HandleToggleComplete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.ownedTask(w, r, "update")
	if !ok {
		return
	}

	next := store.TaskCompleted
	if t.Status == store.TaskCompleted {
		next = store.TaskPending
	}

	updated, err := h.store.SetTaskStatus(r.Context(), t.ID, next)
	if err != nil {
		writeStoreError(w, err, types.ErrTaskNotFound, "task", h.logger)
		return
	}
	WriteData(w, api.TaskCompletionResponse{
		ID:          updated.ID,
		Title:       updated.Title,
		Description: updated.Description,
		Status:      updated.Status,
		Completed:   updated.Status == store.TaskCompleted,
	})
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// user 校验路径中的用户存在且与已认证身份一致
func (h *TaskHandler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.store == nil {
		storageUnavailable(w, h.logger)
		return "", false
	}

	userID := r.PathValue("user_id")
	if caller, ok := types.UserID(r.Context()); ok && caller != userID {
		WriteError(w, types.NewError(types.ErrForbidden, "Not authorized to access this user's tasks").
			WithHTTPStatus(http.StatusForbidden), h.logger)
		return "", false
	}

	if _, err := h.store.GetUser(r.Context(), userID); err != nil {
		writeStoreError(w, err, types.ErrUserNotFound, "User", h.logger)
		return "", false
	}
	return userID, true
}

// ownedTask 加载任务并校验归属；action 出现在 403 消息中
func (h *TaskHandler) ownedTask(w http.ResponseWriter, r *http.Request, action string) (*store.Task, bool) {
	userID, ok := h.user(w, r)
	if !ok {
		return nil, false
	}

	t, err := h.store.GetTask(r.Context(), r.PathValue("task_id"))
	if err != nil {
		writeStoreError(w, err, types.ErrTaskNotFound, "Task", h.logger)
		return nil, false
	}
	if t.UserID != userID {
		WriteError(w, types.NewError(types.ErrForbidden, "Not authorized to "+action+" this task").
			WithHTTPStatus(http.StatusForbidden), h.logger)
		return nil, false
	}
	return t, true
}

func (h *TaskHandler) decodeTask(w http.ResponseWriter, r *http.Request) (api.TaskRequest, bool) {
	var req api.TaskRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return req, false
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || utf8.RuneCountInString(req.Title) > maxTitleLen {
		WriteError(w, types.NewInvalidRequestError("title must be 1-255 characters"), h.logger)
		return req, false
	}
	return req, true
}

func toTaskView(t *store.Task) api.Task {
	return api.Task{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		UserID:        t.UserID,
		AgentAssigned: t.AgentAssigned,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
