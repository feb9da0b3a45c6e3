// 版权所有 2024 AgentRouter Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 store 提供用户、任务、会话与聊天消息的 gorm 持久化。

# 核心类型

  - User / Task / Conversation / ChatMessage：数据表模型，主键为 UUID 字符串，
    在 BeforeCreate 钩子中生成
  - Repository：按实体划分的读写方法，错误统一包装为 ErrNotFound / ErrConflict

# 数据库方言

Repository 只依赖 *gorm.DB，方言（postgres、mysql、sqlite）由
internal/database 根据配置选择；表结构由 internal/migration 的 SQL 迁移
或 AutoMigrate 创建，两者保持一致。
*/
package store
