// =============================================================================
// 📦 测试数据工厂 - Agent 测试数据
// =============================================================================
// 提供预定义的 Agent 定义与注册表，用于测试
// =============================================================================
package fixtures

import (
	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/agent"
)

// =============================================================================
// 🤖 Agent 定义工厂
// =============================================================================

// FrontendAgent 返回只含前端技能的定义
func FrontendAgent() agent.Definition {
	return agent.Definition{
		ID:          "fe-1",
		Name:        "Frontend Tasks Agent",
		Description: "Handles frontend development tasks",
		Skills:      []string{"frontend", "ui", "react", "css"},
		Label:       "Frontend Agent",
		Domain:      "frontend",
	}
}

// DatabaseAgent 返回只含数据库技能的定义
func DatabaseAgent() agent.Definition {
	return agent.Definition{
		ID:          "db-1",
		Name:        "Database Agent",
		Description: "Handles database operations and queries",
		Skills:      []string{"database", "postgres", "sql"},
		Label:       "Database Agent",
		Domain:      "database",
	}
}

// =============================================================================
// 📚 注册表工厂
// =============================================================================

// NewRegistry 构建含默认主 Agent 与给定子 Agent 的注册表
func NewRegistry(defs ...agent.Definition) *agent.Registry {
	r := agent.NewRegistry(
		agent.NewMainAgent(agent.MainAgentID, agent.MainAgentName, agent.MainAgentDescription),
		zap.NewNop(),
	)
	for _, d := range defs {
		if err := r.Register(agent.NewSubAgent(d)); err != nil {
			panic(err)
		}
	}
	return r
}

// EmptyRegistry 返回只有主 Agent 的注册表
func EmptyRegistry() *agent.Registry {
	return NewRegistry()
}

// DefaultRegistry 返回内置目录的注册表
func DefaultRegistry() *agent.Registry {
	return agent.NewDefaultRegistry(zap.NewNop())
}
