package agent

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentrouter/types"
)

func TestNewSubAgent_Defaults(t *testing.T) {
	skills := []string{"chat", "ui"}
	a := NewSubAgent(Definition{ID: "x", Name: "X", Skills: skills, Label: "Chat UI Agent", Domain: "chat UI"})

	assert.Equal(t, StatusActive, a.Status())
	assert.Equal(t, KindSub, a.Kind())
	assert.False(t, a.CreatedAt().IsZero())

	// definition is copied
	skills[0] = "changed"
	assert.Equal(t, []string{"chat", "ui"}, a.Skills())

	got := a.Skills()
	got[0] = "mutated"
	assert.Equal(t, "chat", a.Skills()[0])
}

func TestNewMainAgent(t *testing.T) {
	m := NewMainAgent(MainAgentID, MainAgentName, MainAgentDescription)

	assert.Equal(t, KindMain, m.Kind())
	assert.Equal(t, []string{"orchestration", "task_delegation"}, m.Skills())
	assert.Equal(t, StatusActive, m.Status())
}

func TestAgent_Respond(t *testing.T) {
	a := NewSubAgent(Specialists()[3])

	short := a.Respond(types.NewMessage("add typing indicators"))
	assert.Equal(t, "[Chat UI Agent] Processing chat UI request: add typing indicators...", short)

	long := strings.Repeat("a", 80)
	got := a.Respond(types.NewMessage(long))
	assert.Equal(t, "[Chat UI Agent] Processing chat UI request: "+strings.Repeat("a", 50)+"...", got)
}

func TestAgent_HasSkill(t *testing.T) {
	a := NewSubAgent(Definition{ID: "x", Skills: []string{"backend", "api"}})

	assert.True(t, a.HasSkill("api"))
	assert.True(t, a.HasSkill("nope", "backend"))
	assert.False(t, a.HasSkill("ap"))
	assert.False(t, a.HasSkill())
}

func TestAgent_StatusConcurrent(t *testing.T) {
	a := NewSubAgent(Definition{ID: "x"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				a.SetStatus(StatusBusy)
			} else {
				_ = a.Info()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, StatusBusy, a.Status())
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"active", "inactive", "busy"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("sleeping")
	require.Error(t, err)
	var invalid ErrInvalidStatus
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sleeping", invalid.Value)

	_, err = ParseStatus("Active")
	assert.Error(t, err)
}

func TestKindDescription(t *testing.T) {
	assert.Equal(t, "Main orchestrator agent", KindDescription(KindMain))
	assert.Equal(t, "Specialized sub-agent", KindDescription(KindSub))
	assert.Empty(t, KindDescription("other"))
}
