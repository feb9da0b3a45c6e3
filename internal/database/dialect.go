package database

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 支持的数据库驱动
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config 数据库连接配置
type Config struct {
	Driver string     `yaml:"driver" json:"driver"`
	DSN    string     `yaml:"dsn" json:"dsn"`
	Pool   PoolConfig `yaml:"pool" json:"pool"`
}

// NormalizeDriver 把驱动别名归一为 DriverPostgres/DriverMySQL/DriverSQLite，
// 空字符串视为 postgres
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case DriverPostgres, "postgresql", "pg", "":
		return DriverPostgres, nil
	case DriverMySQL, "mariadb":
		return DriverMySQL, nil
	case DriverSQLite, "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Dialector 根据驱动名返回 GORM 方言
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	name, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	switch name {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return postgres.Open(dsn), nil
	}
}

// Open 打开数据库并应用连接池配置
func Open(cfg Config, log *zap.Logger) (*Pool, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	pool := cfg.Pool
	if pool.MaxOpenConns == 0 && pool.MaxIdleConns == 0 {
		pool = DefaultPoolConfig()
	}
	// 内存 SQLite 每个连接都是独立的库
	if name, _ := NormalizeDriver(cfg.Driver); name == DriverSQLite && strings.Contains(cfg.DSN, ":memory:") {
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
		pool.ConnMaxLifetime = 0
		pool.ConnMaxIdleTime = 0
	}

	return newPool(db, pool, log)
}
