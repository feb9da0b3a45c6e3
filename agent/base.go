package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/agentrouter/types"
)

// Definition 描述一个 Agent 的静态属性，构造后不再变化
type Definition struct {
	ID          string
	Name        string
	Description string
	Skills      []string

	// Label 与 Domain 用于生成子 Agent 的回复文本
	Label  string
	Domain string
}

// Agent 是注册表中的一条处理者记录。除 status 外全部只读。
type Agent struct {
	def       Definition
	kind      Kind
	createdAt time.Time

	mu     sync.RWMutex
	status Status
}

// Info 是 Agent 对外展示的快照
type Info struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Skills      []string `json:"skills"`
}

// NewSubAgent creates an active specialist from def.
func NewSubAgent(def Definition) *Agent {
	return newAgent(def, KindSub)
}

// NewMainAgent creates the orchestrator record.
func NewMainAgent(id, name, description string) *Agent {
	return newAgent(Definition{
		ID:          id,
		Name:        name,
		Description: description,
		Skills:      []string{"orchestration", "task_delegation"},
	}, KindMain)
}

func newAgent(def Definition, kind Kind) *Agent {
	def.Skills = append([]string(nil), def.Skills...)
	return &Agent{
		def:       def,
		kind:      kind,
		createdAt: time.Now().UTC(),
		status:    StatusActive,
	}
}

func (a *Agent) ID() string           { return a.def.ID }
func (a *Agent) Name() string         { return a.def.Name }
func (a *Agent) Description() string  { return a.def.Description }
func (a *Agent) Kind() Kind           { return a.kind }
func (a *Agent) CreatedAt() time.Time { return a.createdAt }

// Skills returns a copy of the skill tags.
func (a *Agent) Skills() []string {
	return append([]string(nil), a.def.Skills...)
}

// Status returns the current status.
func (a *Agent) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// SetStatus replaces the current status.
func (a *Agent) SetStatus(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// HasSkill reports whether any tag is one of the agent's skills.
// Comparison is exact.
func (a *Agent) HasSkill(tags ...string) bool {
	for _, skill := range a.def.Skills {
		for _, tag := range tags {
			if skill == tag {
				return true
			}
		}
	}
	return false
}

// Respond produces the specialist reply for msg.
func (a *Agent) Respond(msg types.Message) string {
	head, _ := types.Preview(msg.Content, 50)
	return fmt.Sprintf("[%s] Processing %s request: %s...", a.def.Label, a.def.Domain, head)
}

// Info returns a point-in-time snapshot.
func (a *Agent) Info() Info {
	return Info{
		ID:          a.def.ID,
		Name:        a.def.Name,
		Description: a.def.Description,
		Status:      a.Status(),
		Skills:      a.Skills(),
	}
}
