// 版权所有 2024 AgentRouter Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 为存储层打开 GORM 连接并管理连接池。

NormalizeDriver 把 postgresql/pg、mariadb、sqlite3 等别名归一为
postgres、mysql、sqlite，Dialector 据此选择 GORM 方言，serve 与
migrate 两个命令共用这套规则。Open 返回的 Pool 持有 GORM 实例与底层
sql.DB；内存 SQLite 固定为单连接，因为每个连接都是独立的库。

Pool.WithTransactionRetry 是 store.Repository 的事务入口，遇到死锁、
序列化失败、锁等待超时或断开的连接时按指数退避重试。可重试错误按驱动
判断：pgconn.PgError 的 SQLSTATE、mysql.MySQLError 的错误号，SQLite
只能匹配错误文本。
*/
package database
