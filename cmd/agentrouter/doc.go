// Copyright (c) AgentRouter Authors.
// Licensed under the MIT License.

/*
Package main 提供 AgentRouter 服务端程序入口。

# 概述

cmd/agentrouter 装配主 Agent、子 Agent 注册表、活动日志与存储，
对外提供 HTTP API 与 WebSocket 对话端点，并附带数据库迁移、
健康检查和版本查询子命令。

# 核心类型

  - Server：初始化存储、缓存与 Agent，管理 HTTP 与 Metrics 双端口及优雅关闭
  - Middleware：HTTP 中间件函数签名 func(http.Handler) http.Handler
  - HTTPRecorder：MetricsMiddleware 使用的请求指标接口

# 主要能力

  - 子命令：serve、migrate（up/down/steps/goto/force/reset/status/version）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、RequestLogger、
    CORS、RateLimiter（基于 IP）、APIKeyAuth、JWTAuth、MetricsMiddleware
  - 存储降级：数据库或 Redis 不可用时只关闭依赖它们的端点
  - 后台采样：定期上报连接池与缓存命中统计
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
