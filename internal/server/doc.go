// 版权所有 2024 AgentRouter Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 API 端口与 Metrics 端口上 http.Server 的生命周期。

每个端口一个 Manager：Start 非阻塞地监听并服务，配置了证书时通过
tlsutil.ServerTLSConfig 提供 HTTPS；Serve 的异步错误经 Errors 暴露；
WaitForShutdown 等待 SIGINT/SIGTERM、ctx 结束或服务异常后调用
Shutdown，在 ShutdownTimeout 内排空请求。
*/
package server
