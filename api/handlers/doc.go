// Copyright (c) AgentRouter Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 AgentRouter HTTP 与 WebSocket 端点的请求处理器。

# 概述

每个 Handler 通过 Register 把自己的路由挂到 http.ServeMux 上
（Go 1.22 的 "METHOD /path" 模式）。成功响应直接写出 DTO，
错误统一使用 Response 信封。

# 核心类型

  - AgentHandler：Agent 列表、状态、路由、委派与专用技能端点
  - AnalysisHandler：任务分析、技能列表与技能分类
  - ChatHandler：聊天发送与会话查询，持久化到 ChatStore
  - TaskHandler：用户与任务 CRUD，按用户校验归属
  - SystemHandler：统计、活动、性能、配置与委派日志
  - WebSocketHandler：/ws 实时通道
  - HealthHandler：/health、/healthz、/ready、/readyz

# 存储不可用

ChatStore 或 TaskStore 为 nil 时，相关端点返回 503 STORAGE_UNAVAILABLE，
其余端点照常工作。
*/
package handlers
