// Package telemetry 初始化 OpenTelemetry SDK：HTTP 中间件与编排器的 span、
// 以及编排器的 agentrouter.delegations 计数器经 OTLP/gRPC 导出。
// 禁用时保留全局 noop provider，不连接任何外部服务。
package telemetry
