package migration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/BaSui01/agentrouter/internal/store"
)

func TestEmbeddedSteps_AllDialects(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			steps, err := embeddedSteps(driver)
			require.NoError(t, err)
			require.NotEmpty(t, steps)
			assert.Equal(t, uint(1), steps[0].Version)
			assert.Equal(t, "init_schema", steps[0].Name)

			for i := 1; i < len(steps); i++ {
				assert.Greater(t, steps[i].Version, steps[i-1].Version)
			}
		})
	}

	_, err := embeddedSteps("oracle")
	assert.Error(t, err)
}

func TestOpen_Rejects(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Open("sqlite", "")
	assert.ErrorContains(t, err, "dsn is required")
}

func TestStatus_Pending(t *testing.T) {
	st := &Status{Steps: []Step{{Version: 1, Applied: true}, {Version: 2}, {Version: 3}}}
	assert.Equal(t, 2, st.Pending())
	assert.Equal(t, 0, (&Status{}).Pending())
}

func newSQLiteMigrator(t *testing.T, opts ...Option) (*Migrator, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	m, err := Open("sqlite3", "file:"+dbPath+"?_pragma=foreign_keys(1)", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, dbPath
}

func TestMigrator_SQLite_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	core, logs := observer.New(zap.InfoLevel)
	m, _ := newSQLiteMigrator(t, WithLogger(zap.New(core)))
	ctx := context.Background()
	assert.Equal(t, "sqlite", m.Driver())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, m.Up(ctx))
	// running again is a no-op
	require.NoError(t, m.Up(ctx))
	assert.Equal(t, 1, logs.FilterMessage("migration finished").Len())

	version, dirty, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, m.Steps(ctx, -1))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, m.Goto(ctx, 1))
	require.NoError(t, m.Reset(ctx))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}

func TestMigrator_CanceledContext(t *testing.T) {
	m, _ := newSQLiteMigrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Up(ctx), context.Canceled)
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}

func TestMigrator_Force(t *testing.T) {
	m, _ := newSQLiteMigrator(t)

	require.NoError(t, m.Force(1))
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrator_Status_ReportsServiceTables(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	m, dbPath := newSQLiteMigrator(t)
	ctx := context.Background()

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", st.Driver)
	assert.Equal(t, 1, st.Pending())
	require.Len(t, st.Tables, 4)
	for _, tbl := range st.Tables {
		assert.False(t, tbl.Present, tbl.Name)
	}

	require.NoError(t, m.Up(ctx))

	db, err := gorm.Open(sqlite.Open("file:"+dbPath), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := store.NewRepository(db, zap.NewNop())
	user := &store.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.CreateUser(ctx, user))
	require.NoError(t, repo.CreateTask(ctx, &store.Task{Title: "migrate", UserID: user.ID}))

	st, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), st.Version)
	assert.Equal(t, 0, st.Pending())
	require.Len(t, st.Steps, 1)
	assert.True(t, st.Steps[0].Applied)

	rows := map[string]int64{}
	for _, tbl := range st.Tables {
		assert.True(t, tbl.Present, tbl.Name)
		rows[tbl.Name] = tbl.Rows
	}
	assert.Equal(t, map[string]int64{
		"users":         1,
		"conversations": 0,
		"chat_messages": 0,
		"tasks":         1,
	}, rows)
}

func TestMigrator_SQLite_SchemaMatchesModels(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	m, dbPath := newSQLiteMigrator(t)
	ctx := context.Background()
	require.NoError(t, m.Up(ctx))

	db, err := gorm.Open(sqlite.Open("file:"+dbPath), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := store.NewRepository(db, zap.NewNop())

	user := &store.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.CreateUser(ctx, user))

	task := &store.Task{Title: "migrate", UserID: user.ID}
	require.NoError(t, repo.CreateTask(ctx, task))

	conv := &store.Conversation{Title: "hello"}
	require.NoError(t, repo.SaveExchange(ctx, conv, &store.ChatMessage{SenderType: "user", SenderID: "u", Content: "hello"}))

	tasks, err := repo.ListTasks(ctx, user.ID, store.Page{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, store.TaskPending, tasks[0].Status)
}
