package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(zap.NewNop())

	require.NotNil(t, r.Main())
	assert.Equal(t, MainAgentID, r.Main().ID())

	subs := r.SubAgents()
	require.Len(t, subs, 8)
	for i, a := range subs {
		assert.Equal(t, specialists[i].ID, a.ID())
	}

	all := r.All()
	require.Len(t, all, 9)
	assert.Equal(t, MainAgentID, all[0].ID())

	a, ok := r.Get("sub-agent-007")
	require.True(t, ok)
	assert.Equal(t, "Security Agent", a.Name())

	_, ok = r.Get(MainAgentID)
	assert.True(t, ok)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(NewMainAgent("m", "Main", ""), nil)

	require.NoError(t, r.Register(NewSubAgent(Definition{ID: "a", Name: "A"})))
	require.NoError(t, r.Register(NewSubAgent(Definition{ID: "b", Name: "B"})))

	// replacing keeps position
	require.NoError(t, r.Register(NewSubAgent(Definition{ID: "a", Name: "A2"})))
	subs := r.SubAgents()
	require.Len(t, subs, 2)
	assert.Equal(t, "A2", subs[0].Name())
	assert.Equal(t, "b", subs[1].ID())

	assert.ErrorIs(t, r.Register(nil), ErrInvalidAgent)
	assert.ErrorIs(t, r.Register(NewSubAgent(Definition{})), ErrInvalidAgent)
	assert.ErrorIs(t, r.Register(NewMainAgent("x", "X", "")), ErrInvalidAgent)
	assert.ErrorIs(t, r.Register(NewSubAgent(Definition{ID: "m"})), ErrInvalidAgent)
}

func TestRegistry_SetStatus(t *testing.T) {
	r := NewDefaultRegistry(zap.NewNop())

	a, err := r.SetStatus("sub-agent-002", "busy")
	require.NoError(t, err)
	assert.Equal(t, StatusBusy, a.Status())

	_, err = r.SetStatus("sub-agent-002", "asleep")
	var invalid ErrInvalidStatus
	assert.ErrorAs(t, err, &invalid)

	_, err = r.SetStatus("nobody", "active")
	assert.ErrorIs(t, err, ErrAgentNotFound)

	m, err := r.SetStatus(MainAgentID, "inactive")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, m.Status())
}

func TestRegistry_FindBySkill(t *testing.T) {
	r := NewDefaultRegistry(zap.NewNop())

	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"frontend", []string{"frontend", "ui", "nextjs"}, "sub-agent-001"},
		{"backend", []string{"backend", "api", "fastapi"}, "sub-agent-002"},
		{"database", []string{"database", "postgres", "sql"}, "sub-agent-002"},
		{"chat", []string{"chat", "websocket", "messaging"}, "sub-agent-004"},
		{"auth", []string{"auth", "authentication", "jwt", "security"}, "sub-agent-007"},
		{"devops", []string{"devops", "deployment", "docker", "railway"}, "sub-agent-008"},
		{"test", []string{"test", "testing", "qa"}, "sub-agent-006"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := r.FindBySkill(tt.tags...)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.ID())
		})
	}

	_, ok := r.FindBySkill("cobol")
	assert.False(t, ok)
}
