// 版权所有 2024 AgentRouter Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、路由决策、
Agent 状态、WebSocket、缓存与数据库六个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册；NewCollectorWithRegistry 允许测试或嵌入方传入独立 Registry。
所有指标按 namespace 隔离。

# 主要能力

  - HTTP 指标：请求总数、耗时、请求/响应体大小，状态码归类为 2xx/3xx/4xx/5xx。
  - 路由指标：主 Agent 委派结果（delegated/no_match/no_sub_agents）、
    技能匹配路由次数与置信度分布、任务分析的类别与复杂度计数。
  - Agent 指标：状态转换计数。
  - WebSocket 指标：活跃连接数 Gauge 与消息处理结果计数。
  - 缓存与数据库指标：Redis keyspace 命中/未命中、连接池打开/空闲连接数。
*/
package metrics
