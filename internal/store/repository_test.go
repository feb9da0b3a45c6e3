package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/agentrouter/internal/database"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(db, zap.NewNop())
	require.NoError(t, repo.AutoMigrate(context.Background()))
	return repo
}

func createUser(t *testing.T, repo *Repository, name string) *User {
	t.Helper()
	u := &User{Username: name, Email: name + "@example.com"}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func TestRepository_Users(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	u := createUser(t, repo, "alice")
	assert.Len(t, u.ID, 36)

	got, err := repo.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.CreateUser(ctx, &User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
	err = repo.CreateUser(ctx, &User{Username: "alice2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	assert.NoError(t, repo.Ping(ctx))
}

func TestRepository_TaskLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "bob")

	task := &Task{Title: "Write tests", Description: "cover the router", UserID: u.ID}
	require.NoError(t, repo.CreateTask(ctx, task))
	assert.Equal(t, TaskPending, task.Status)
	assert.NotEmpty(t, task.ID)

	agentName := "Testing Agent"
	updated, err := repo.UpdateTask(ctx, task.ID, "Write more tests", "cover handlers", &agentName)
	require.NoError(t, err)
	assert.Equal(t, "Write more tests", updated.Title)
	require.NotNil(t, updated.AgentAssigned)
	assert.Equal(t, agentName, *updated.AgentAssigned)

	done, err := repo.SetTaskStatus(ctx, task.ID, TaskCompleted)
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, done.Status)

	got, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, got.Status)
	assert.Equal(t, "cover handlers", got.Description)

	require.NoError(t, repo.DeleteTask(ctx, task.ID))
	_, err = repo.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTask(ctx, task.ID), ErrNotFound)

	_, err = repo.UpdateTask(ctx, "missing", "x", "y", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.SetTaskStatus(ctx, "missing", TaskPending)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ListTasks(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	a := createUser(t, repo, "a")
	b := createUser(t, repo, "b")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"one", "two", "three"} {
		require.NoError(t, repo.CreateTask(ctx, &Task{Title: title, UserID: a.ID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, repo.CreateTask(ctx, &Task{Title: "other", UserID: b.ID}))

	tasks, err := repo.ListTasks(ctx, a.ID, Page{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "one", tasks[0].Title)
	assert.Equal(t, "three", tasks[2].Title)

	tasks, err = repo.ListTasks(ctx, a.ID, Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "two", tasks[0].Title)

	tasks, err = repo.ListTasks(ctx, "nobody", Page{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestRepository_Conversations(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	c := &Conversation{UserID: "default-user", Title: "hello"}
	require.NoError(t, repo.CreateConversation(ctx, c))
	assert.Equal(t, ConversationActive, c.Status)

	require.NoError(t, repo.CreateConversation(ctx, &Conversation{Title: "old", Status: ConversationArchived}))

	got, err := repo.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Title)

	_, err = repo.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	convs, total, err := repo.ListConversations(ctx, Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, convs, 1)

	active, err := repo.CountConversations(ctx, ConversationActive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestRepository_SaveExchange(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agentName := "Frontend Tasks Agent"
	conv := &Conversation{UserID: "u1", Title: "build a page"}
	userMsg := &ChatMessage{SenderType: "user", SenderID: "u1", Content: "build a page", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	reply := &ChatMessage{SenderType: "sub_agent", SenderID: "sub-agent-001", Content: "ok", MessageType: "response", AgentUsed: &agentName, CreatedAt: time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)}

	require.NoError(t, repo.SaveExchange(ctx, conv, userMsg, reply))
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, conv.ID, userMsg.ConversationID)
	assert.Equal(t, "text", userMsg.MessageType)

	msgs, total, err := repo.ListMessages(ctx, conv.ID, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, msgs, 2)
	assert.Equal(t, "build a page", msgs[0].Content)
	assert.Equal(t, "ok", msgs[1].Content)

	// append to the existing conversation
	require.NoError(t, repo.SaveExchange(ctx, &Conversation{ID: conv.ID}, &ChatMessage{SenderType: "user", SenderID: "u1", Content: "more"}))
	_, total, err = repo.ListMessages(ctx, conv.ID, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// unknown conversation rolls back
	err = repo.SaveExchange(ctx, &Conversation{ID: "missing"}, &ChatMessage{SenderType: "user", SenderID: "u1", Content: "lost"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, total, err = repo.ListMessages(ctx, "missing", Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRepository_WithTransactor(t *testing.T) {
	pm, err := database.Open(database.Config{Driver: database.DriverSQLite, DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pm.Close() })

	repo := NewRepository(pm.DB(), zap.NewNop(), WithTransactor(pm, 3))
	ctx := context.Background()
	require.NoError(t, repo.AutoMigrate(ctx))

	u := createUser(t, repo, "carol")
	err = repo.CreateUser(ctx, &User{Username: "carol", Email: "c2@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	task := &Task{Title: "retry me", UserID: u.ID}
	require.NoError(t, repo.CreateTask(ctx, task))
	done, err := repo.SetTaskStatus(ctx, task.ID, TaskCompleted)
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, done.Status)

	_, err = repo.UpdateTask(ctx, "missing", "x", "y", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	// a closed pool refuses new transactions
	require.NoError(t, pm.Close())
	assert.Error(t, repo.CreateUser(ctx, &User{Username: "dave", Email: "dave@example.com"}))
}
