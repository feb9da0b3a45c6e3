package analysis

import "strings"

// Category is a task classification.
type Category string

const (
	CategoryFrontend   Category = "frontend"
	CategoryBackend    Category = "backend"
	CategoryDatabase   Category = "database"
	CategoryChatUI     Category = "chat_ui"
	CategoryResearch   Category = "research"
	CategoryTesting    Category = "testing"
	CategorySecurity   Category = "security"
	CategoryDeployment Category = "deployment"
	CategoryGeneral    Category = "general"
)

// categoryKeywords is the scoring table. The first declared category
// wins ties. Duplicate keywords count twice toward both the hit count
// and the list length.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryFrontend, []string{
		"ui", "interface", "design", "html", "css", "javascript", "react",
		"vue", "angular", "frontend", "styling", "component", "mobile",
		"responsive", "tailwind", "bootstrap", "nextjs", "frontend",
	}},
	{CategoryBackend, []string{
		"api", "server", "endpoint", "route", "backend", "rest",
		"graphql", "microservice", "database", "integration", "authentication",
		"authorization", "oauth", "jwt", "session", "middleware",
	}},
	{CategoryDatabase, []string{
		"database", "sql", "postgres", "mysql", "mongodb", "query",
		"migration", "orm", "schema", "table", "index", "join",
		"relational", "nosql", "storage", "transaction",
	}},
	{CategoryChatUI, []string{
		"chat", "messaging", "conversation", "realtime", "websocket",
		"message", "conversation", "ui", "interface", "communication",
		"instant", "live", "typing", "presence",
	}},
	{CategoryResearch, []string{
		"research", "investigate", "analyze", "study", "examine", "explore",
		"gather", "collect", "information", "data", "learn", "understand", "evaluate",
	}},
	{CategoryTesting, []string{
		"test", "testing", "unit", "integration", "e2e", "qa", "quality",
		"assertion", "validation", "verification", "coverage", "mock", "spy", "stub",
	}},
	{CategorySecurity, []string{
		"security", "authentication", "authorization", "encryption",
		"vulnerability", "penetration", "secure", "safe", "protect",
		"password", "hash", "salt", "certificate", "ssl", "tls",
	}},
	{CategoryDeployment, []string{
		"deploy", "deployment", "devops", "ci", "cd", "pipeline", "docker",
		"kubernetes", "container", "cloud", "hosting", "server",
		"infrastructure", "scaling", "monitoring",
	}},
}

// scoredCategories returns the scored categories in declaration order.
func scoredCategories() []Category {
	out := make([]Category, len(categoryKeywords))
	for i, ck := range categoryKeywords {
		out[i] = ck.category
	}
	return out
}

// keywordsFor returns a copy of the keyword list for c, or nil for
// general and unknown categories.
func keywordsFor(c Category) []string {
	for _, ck := range categoryKeywords {
		if ck.category == c {
			return append([]string(nil), ck.keywords...)
		}
	}
	return nil
}

// skillBuckets groups agent skill tags for the skill catalogue.
// First matching bucket wins.
var skillBuckets = []struct {
	name    string
	needles []string
}{
	{"frontend", []string{"frontend", "ui", "css", "html"}},
	{"backend", []string{"backend", "api", "server"}},
	{"database", []string{"database", "sql", "postgres"}},
	{"communication", []string{"chat", "messaging", "websocket"}},
	{"security", []string{"security", "auth", "encrypt"}},
	{"testing", []string{"test", "qa"}},
	{"deployment", []string{"deploy", "devops", "docker"}},
	{"research", []string{"research", "analyze", "data"}},
}

// CategorizeSkill buckets a single skill tag by substring, falling back
// to "general".
func CategorizeSkill(skill string) string {
	for _, b := range skillBuckets {
		for _, n := range b.needles {
			if strings.Contains(skill, n) {
				return b.name
			}
		}
	}
	return string(CategoryGeneral)
}
