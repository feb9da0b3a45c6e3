package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	appdb "github.com/BaSui01/agentrouter/internal/database"
	"github.com/BaSui01/agentrouter/internal/store"
)

// 每个方言一个目录：migrations/{postgres,mysql,sqlite}
//
//go:embed migrations
var schemaFS embed.FS

// DefaultTable 记录迁移版本的表名
const DefaultTable = "schema_migrations"

const defaultLockTimeout = 15 * time.Second

// =============================================================================
// 📋 状态类型
// =============================================================================

// Step 一个内嵌迁移文件
type Step struct {
	Version uint
	Name    string
	Applied bool
}

// Table 业务表的当前状态
type Table struct {
	Name    string
	Present bool
	Rows    int64
}

// Status 迁移进度与 users/tasks/conversations/chat_messages 四张表的概况
type Status struct {
	Driver  string
	Version uint
	Dirty   bool
	Steps   []Step
	Tables  []Table
}

// Pending returns the number of embedded migrations not yet applied.
func (s *Status) Pending() int {
	n := 0
	for _, st := range s.Steps {
		if !st.Applied {
			n++
		}
	}
	return n
}

// =============================================================================
// 🔧 Migrator
// =============================================================================

type options struct {
	table       string
	lockTimeout time.Duration
	logger      *zap.Logger
}

// Option 配置 Migrator
type Option func(*options)

// WithTable overrides the version table name.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithLockTimeout bounds how long Open's migrations wait for the database lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithLogger routes golang-migrate output and step timings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Migrator 在服务数据库上执行内嵌的 Schema 迁移
type Migrator struct {
	driver string
	db     *gorm.DB
	mig    *migrate.Migrate
	logger *zap.Logger
}

// Open connects to dsn through the service's gorm dialector for driver and
// prepares the embedded migrations of that dialect.
func Open(driver, dsn string, opts ...Option) (*Migrator, error) {
	o := options{table: DefaultTable, lockTimeout: defaultLockTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	name, err := appdb.NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	dialector, err := appdb.Dialector(name, dsn)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", name, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", name, err)
	}

	mig, err := newMigrate(name, sqlDB, o.table)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log := o.logger.With(zap.String("component", "migration"), zap.String("driver", name))
	mig.Log = migrateLogger{log}
	mig.LockTimeout = o.lockTimeout

	return &Migrator{driver: name, db: gdb, mig: mig, logger: log}, nil
}

func newMigrate(driver string, db *sql.DB, table string) (*migrate.Migrate, error) {
	var (
		target database.Driver
		err    error
	)
	switch driver {
	case appdb.DriverMySQL:
		target, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: table})
	case appdb.DriverSQLite:
		target, err = sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: table})
	default:
		target, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	}
	if err != nil {
		return nil, fmt.Errorf("prepare %s version table: %w", driver, err)
	}

	src, err := openSource(driver)
	if err != nil {
		return nil, err
	}
	mig, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return mig, nil
}

func openSource(driver string) (source.Driver, error) {
	src, err := iofs.New(schemaFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", driver, err)
	}
	return src, nil
}

// Driver returns the normalised driver name.
func (m *Migrator) Driver() string { return m.driver }

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", m.mig.Up)
}

// Steps applies n migrations, or rolls back -n when n is negative.
func (m *Migrator) Steps(ctx context.Context, n int) error {
	return m.run(ctx, fmt.Sprintf("steps %d", n), func() error { return m.mig.Steps(n) })
}

// Reset rolls back every applied migration.
func (m *Migrator) Reset(ctx context.Context) error {
	return m.run(ctx, "reset", m.mig.Down)
}

// Goto migrates up or down to version.
func (m *Migrator) Goto(ctx context.Context, version uint) error {
	return m.run(ctx, fmt.Sprintf("goto %d", version), func() error { return m.mig.Migrate(version) })
}

// Force records version as applied and clears the dirty flag without
// running any SQL.
func (m *Migrator) Force(version int) error {
	if err := m.mig.Force(version); err != nil {
		return fmt.Errorf("migrate force %d: %w", version, err)
	}
	m.logger.Warn("migration version forced", zap.Int("version", version))
	return nil
}

// Version returns the applied version; 0 means nothing applied.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrate version: %w", err)
	}
	return v, dirty, nil
}

// Status reports the embedded migrations against the applied version and
// the presence and row count of each service table.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}
	steps, err := embeddedSteps(m.driver)
	if err != nil {
		return nil, err
	}
	for i := range steps {
		steps[i].Applied = steps[i].Version <= version
	}
	tables, err := m.tables(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Driver:  m.driver,
		Version: version,
		Dirty:   dirty,
		Steps:   steps,
		Tables:  tables,
	}, nil
}

// Close releases the migration source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.mig.Close()
	return errors.Join(srcErr, dbErr)
}

// run executes fn and asks golang-migrate to stop after the current file
// once ctx is done.
func (m *Migrator) run(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case m.mig.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()

	start := time.Now()
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Debug("no migration to run", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("migrate %s interrupted: %w", op, ctx.Err())
	}
	m.logger.Info("migration finished", zap.String("op", op), zap.Duration("took", time.Since(start)))
	return nil
}

func (m *Migrator) tables(ctx context.Context) ([]Table, error) {
	db := m.db.WithContext(ctx)
	models := store.Models()
	out := make([]Table, 0, len(models))
	for _, model := range models {
		tabler, ok := model.(schema.Tabler)
		if !ok {
			continue
		}
		t := Table{Name: tabler.TableName()}
		t.Present = db.Migrator().HasTable(t.Name)
		if t.Present {
			if err := db.Table(t.Name).Count(&t.Rows).Error; err != nil {
				return nil, fmt.Errorf("count %s: %w", t.Name, err)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// embeddedSteps walks the dialect's migrations in version order.
func embeddedSteps(driver string) ([]Step, error) {
	src, err := openSource(driver)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var steps []Step
	v, err := src.First()
	for err == nil {
		r, name, rerr := src.ReadUp(v)
		if rerr != nil {
			return nil, fmt.Errorf("read migration %d: %w", v, rerr)
		}
		_ = r.Close()
		steps = append(steps, Step{Version: v, Name: name})
		v, err = src.Next(v)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list %s migrations: %w", driver, err)
	}
	return steps, nil
}

// migrateLogger 把 golang-migrate 的输出转到 zap
type migrateLogger struct {
	logger *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
