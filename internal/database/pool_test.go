package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// =============================================================================
// 🧪 Pool 测试
// =============================================================================

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm.Open 会先 ping 一次
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	return mockDB, mock, gormDB
}

func testPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

func TestNewPool(t *testing.T) {
	mockDB, _, gormDB := setupTestDB(t)
	defer mockDB.Close()

	pool, err := newPool(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, gormDB, pool.DB())
	assert.Equal(t, 10, pool.Stats().MaxOpenConnections)

	_, err = newPool(nil, testPoolConfig(), zap.NewNop())
	assert.Error(t, err)
}

func TestPool_Ping(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	pool, err := newPool(gormDB, testPoolConfig(), nil)
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, pool.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	assert.ErrorIs(t, pool.Ping(context.Background()), sql.ErrConnDone)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_WithTransactionRetry(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	pool, err := newPool(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err = pool.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_WithTransactionRetry_NonRetryable(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	pool, err := newPool(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	attempts := 0
	err = pool.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_WithTransactionRetry_GivesUp(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	pool, err := newPool(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()

	conflict := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	err = pool.WithTransactionRetry(context.Background(), 2, func(tx *gorm.DB) error {
		return conflict
	})
	assert.ErrorIs(t, err, conflict)
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_Close(t *testing.T) {
	_, mock, gormDB := setupTestDB(t)

	pool, err := newPool(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, pool.Close())
	// 重复关闭无副作用
	require.NoError(t, pool.Close())
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.ErrorIs(t, pool.Ping(context.Background()), ErrPoolClosed)
	assert.ErrorIs(t, pool.WithTransactionRetry(context.Background(), 1, func(*gorm.DB) error { return nil }), ErrPoolClosed)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg deadlock wrapped", fmt.Errorf("save: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, false},
		{"bad connection", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"syntax", errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

// =============================================================================
// 🔌 方言选择测试
// =============================================================================

func TestDialector(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgres", "postgres"},
		{"", "postgres"},
		{"MySQL", "mysql"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
		{"pg", "postgres"},
		{"mariadb", "mysql"},
	}
	for _, tt := range tests {
		d, err := Dialector(tt.driver, "dsn")
		require.NoError(t, err, tt.driver)
		assert.Equal(t, tt.want, d.Name(), tt.driver)
	}

	_, err := Dialector("oracle", "dsn")
	assert.Error(t, err)
	_, err = Dialector("postgres", "")
	assert.Error(t, err)
}

func TestNormalizeDriver(t *testing.T) {
	for in, want := range map[string]string{
		"POSTGRESQL": DriverPostgres,
		"":           DriverPostgres,
		"mariadb":    DriverMySQL,
		"sqlite3":    DriverSQLite,
	} {
		got, err := NormalizeDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeDriver("oracle")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpen_SQLiteMemory(t *testing.T) {
	pm, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	defer pm.Close()

	require.NoError(t, pm.Ping(context.Background()))
	assert.Equal(t, 1, pm.Stats().MaxOpenConnections)
	assert.Equal(t, "sqlite", pm.DB().Dialector.Name())
}
