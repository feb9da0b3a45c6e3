package agent

import "go.uber.org/zap"

// Main agent identity.
const (
	MainAgentID          = "main-agent-001"
	MainAgentName        = "Main Agent"
	MainAgentDescription = "Central orchestrator that routes requests to appropriate sub-agents"
)

// specialists is the built-in sub-agent catalog in registration order.
var specialists = []Definition{
	{
		ID:          "sub-agent-001",
		Name:        "Frontend Tasks Agent",
		Description: "Handles frontend development tasks",
		Skills:      []string{"frontend", "ui", "ux", "html", "css", "javascript", "react", "nextjs", "tailwind"},
		Label:       "Frontend Agent",
		Domain:      "frontend",
	},
	{
		ID:          "sub-agent-002",
		Name:        "Backend APIs Agent",
		Description: "Handles backend API development tasks",
		Skills:      []string{"backend", "api", "rest", "graphql", "server", "fastapi", "python", "database"},
		Label:       "Backend Agent",
		Domain:      "backend",
	},
	{
		ID:          "sub-agent-003",
		Name:        "Database Agent",
		Description: "Handles database operations and queries",
		Skills:      []string{"database", "postgres", "sql", "neon", "queries", "migration", "orm"},
		Label:       "Database Agent",
		Domain:      "database",
	},
	{
		ID:          "sub-agent-004",
		Name:        "Chat UI Agent",
		Description: "Handles chat UI and real-time communication tasks",
		Skills:      []string{"chat", "ui", "websocket", "realtime", "messaging", "conversation"},
		Label:       "Chat UI Agent",
		Domain:      "chat UI",
	},
	{
		ID:          "sub-agent-005",
		Name:        "Research Agent",
		Description: "Handles research and information gathering tasks",
		Skills: []string{
			"research", "information", "gathering", "analysis", "data", "study",
			"examine", "explore", "collect", "learn", "understand", "evaluate",
		},
		Label:  "Research Agent",
		Domain: "research",
	},
	{
		ID:          "sub-agent-006",
		Name:        "Testing Agent",
		Description: "Handles testing and quality assurance tasks",
		Skills: []string{
			"testing", "qa", "unit", "integration", "e2e", "validation", "coverage",
			"mock", "spy", "stub", "quality", "assertion", "verification",
		},
		Label:  "Testing Agent",
		Domain: "testing",
	},
	{
		ID:          "sub-agent-007",
		Name:        "Security Agent",
		Description: "Handles security and compliance tasks",
		Skills: []string{
			"security", "authentication", "authorization", "encryption", "vulnerability",
			"penetration", "secure", "safe", "protect", "password", "hash", "salt",
			"certificate", "ssl", "tls",
		},
		Label:  "Security Agent",
		Domain: "security",
	},
	{
		ID:          "sub-agent-008",
		Name:        "Deployment Agent",
		Description: "Handles deployment and DevOps tasks",
		Skills: []string{
			"deployment", "devops", "ci", "cd", "pipeline", "docker", "kubernetes",
			"container", "cloud", "hosting", "server", "infrastructure", "scaling",
			"monitoring", "railway",
		},
		Label:  "Deployment Agent",
		Domain: "deployment",
	},
}

// Specialists returns copies of the built-in sub-agent definitions.
func Specialists() []Definition {
	out := make([]Definition, len(specialists))
	for i, d := range specialists {
		d.Skills = append([]string(nil), d.Skills...)
		out[i] = d
	}
	return out
}

// NewDefaultRegistry builds a registry holding the main agent and every
// built-in specialist.
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(NewMainAgent(MainAgentID, MainAgentName, MainAgentDescription), logger)
	for _, def := range specialists {
		// definitions are static and valid
		_ = r.Register(NewSubAgent(def))
	}
	return r
}
