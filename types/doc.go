// Copyright (c) AgentRouter Authors.
// Licensed under the MIT License.

/*
Package types 提供 agentrouter 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent、api、internal
等上层模块提供统一的类型契约，以避免循环依赖。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 HTTP 状态码与 Retryable 标记
  - Message：一次请求构造一次的不可变消息值
  - SenderType / MessageType：消息发送方与消息类别

# 主要能力

  - Context 传播：WithTraceID / WithUserID / WithRoles
  - 错误工具链：AsError / IsErrorCode / IsRetryable / NewNotFoundError
  - 文本截断：Preview（按 rune 截断）与 Title（会话标题）
*/
package types
