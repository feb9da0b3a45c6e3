// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	repo := testutil.NewTestRepository(t)
//	testutil.AssertEventuallyTrue(t, func() bool { return condition }, 5*time.Second)
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BaSui01/agentrouter/internal/cache"
	"github.com/BaSui01/agentrouter/internal/store"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 💾 存储辅助
// =============================================================================

// NewTestDB 打开已迁移的内存 SQLite 数据库。
// 单连接保证所有查询落在同一个内存库上。
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(store.Models()...))
	return db
}

// NewTestRepository 返回基于内存 SQLite 的仓储
func NewTestRepository(t *testing.T) *store.Repository {
	t.Helper()
	return store.NewRepository(NewTestDB(t), zap.NewNop())
}

// NewTestCache 启动 miniredis 并返回连接到它的缓存管理器
func NewTestCache(t *testing.T) (*cache.Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := cache.DefaultConfig()
	cfg.Addr = mr.Addr()
	cfg.HealthCheckInterval = 0

	m, err := cache.NewManager(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// DecodeJSON 解码 r 到 T，失败时终止测试
func DecodeJSON[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

// MustJSON 序列化 v，失败时终止测试
func MustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// AssertJSONEqual 断言 actual 序列化后与 expected JSON 等价
func AssertJSONEqual(t *testing.T, expected string, actual any) {
	t.Helper()
	assert.JSONEq(t, expected, MustJSON(t, actual))
}

// AssertEventuallyTrue 在 timeout 内轮询直到 cond 为真
func AssertEventuallyTrue(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	assert.Eventually(t, cond, timeout, 10*time.Millisecond)
}
