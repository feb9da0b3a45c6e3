// 版权所有 2024 AgentRouter Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 管理 users、conversations、chat_messages、tasks 四张表的
Schema 版本，基于 golang-migrate 实现，支持 PostgreSQL、MySQL 与 SQLite。

# 概述

各方言的 SQL 文件内嵌在 migrations/<driver> 目录下，列定义与
internal/store 的 GORM 模型保持一致。Open 通过 internal/database 的
方言打开连接（驱动别名由 database.NormalizeDriver 归一），不额外注册
database/sql 驱动。

# 操作

  - Up / Steps / Goto / Reset：正向迁移、按步执行、跳转版本与全部回滚，
    ctx 取消后在当前文件完成时停止。
  - Force：强制写入版本号并清除 dirty 标记。
  - Version / Status：当前版本，以及每个迁移文件的应用情况与四张业务表
    是否存在、各有多少行。

golang-migrate 的输出经 WithLogger 转到 zap。命令行的格式化输出在
cmd/agentrouter 的 migrate 子命令中完成。
*/
package migration
