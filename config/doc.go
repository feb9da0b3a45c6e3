// Package config 提供 AgentRouter 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → AGENTROUTER_* 环境变量 的顺序叠加，
// 环境变量名由结构体的 env 标签逐级拼接而成，例如
// AGENTROUTER_SERVER_HTTP_PORT、AGENTROUTER_REDIS_ENABLED。
// Validate 一次性收集全部配置问题。
package config
