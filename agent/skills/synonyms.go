package skills

// synonyms maps a coarse skill name to words that earn partial credit
// when the skill itself does not appear in a request.
var synonyms = map[string][]string{
	"frontend":   {"ui", "interface", "client", "design", "html", "css", "javascript", "react", "vue", "angular"},
	"backend":    {"server", "api", "database", "infrastructure", "rest", "graphql", "microservices"},
	"database":   {"sql", "postgres", "mysql", "mongodb", "storage", "queries", "migration"},
	"api":        {"endpoint", "route", "request", "response", "rest", "graphql", "integration"},
	"chat":       {"messaging", "conversation", "realtime", "websocket", "communication"},
	"security":   {"authentication", "authorization", "encryption", "vulnerability", "penetration"},
	"testing":    {"qa", "quality", "unit", "integration", "e2e", "validation", "verification"},
	"deployment": {"devops", "ci", "cd", "pipeline", "docker", "kubernetes", "cloud", "hosting"},
}

// synonymsFor returns a copy of the synonym list for skill, or nil.
func synonymsFor(skill string) []string {
	words, ok := synonyms[skill]
	if !ok {
		return nil
	}
	out := make([]string, len(words))
	copy(out, words)
	return out
}
