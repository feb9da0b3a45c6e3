package skills

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testCandidate struct {
	name   string
	skills []string
}

func (c testCandidate) Skills() []string { return c.skills }

func TestCalculateSkillMatch(t *testing.T) {
	m := NewMatcher(zap.NewNop())

	tests := []struct {
		name    string
		request string
		skills  []string
		want    float64
	}{
		{"empty skills", "anything", nil, 0},
		{"empty request", "", []string{"frontend"}, 0},
		{"direct hit", "build a frontend page", []string{"frontend"}, 1.0},
		{"synonym only", "I need help with the UI design", []string{"frontend"}, 0.5},
		{"case folded", "FIX THE API", []string{"Api"}, 1.0},
		{"substring not word", "a rapid prototype", []string{"api"}, 1.0},
		{"partial", "write sql for postgres", []string{"sql", "postgres", "orm", "neon"}, 0.5},
		{"mixed", "deploy with docker please", []string{"deployment", "docker"}, 0.75},
		{"no match", "hello there", []string{"security", "tls"}, 0},
		{"dotted capital I keeps its dot", "İnterface redesign", []string{"interface"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.CalculateSkillMatch(tt.request, tt.skills), 1e-9)
		})
	}
}

func TestHasSynonymMatch(t *testing.T) {
	m := NewMatcher(nil)

	assert.True(t, m.HasSynonymMatch("frontend", "I need help with the UI design"))
	assert.True(t, m.HasSynonymMatch("Database", "run the (SQL) now"))
	assert.True(t, m.HasSynonymMatch("testing", "write e2e tests"))
	assert.True(t, m.HasSynonymMatch("chat", "Messaging!"))
	// cleaning drops the combining dot left by lowercasing U+0130
	assert.True(t, m.HasSynonymMatch("frontend", "İnterface"))

	// cleaned words must equal a synonym exactly
	assert.False(t, m.HasSynonymMatch("frontend", "building a uikit"))
	assert.False(t, m.HasSynonymMatch("deployment", "circle back later"))

	// skills without a synonym entry never match
	assert.False(t, m.HasSynonymMatch("orm", "sql postgres"))
	assert.False(t, m.HasSynonymMatch("frontend", ""))
}

func TestFindBestAgent(t *testing.T) {
	m := NewMatcher(zap.NewNop())

	frontend := testCandidate{name: "frontend", skills: []string{"frontend", "react", "css"}}
	database := testCandidate{name: "database", skills: []string{"database", "sql"}}

	t.Run("empty candidates", func(t *testing.T) {
		best, score := m.FindBestAgent("build a react page", nil)
		assert.Nil(t, best)
		assert.Zero(t, score)
	})

	t.Run("no positive score", func(t *testing.T) {
		best, score := m.FindBestAgent("hello", []Candidate{frontend, database})
		assert.Nil(t, best)
		assert.Zero(t, score)
	})

	t.Run("picks highest", func(t *testing.T) {
		best, score := m.FindBestAgent("write sql for the database", []Candidate{frontend, database})
		require.NotNil(t, best)
		assert.Equal(t, "database", best.(testCandidate).name)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("tie keeps first", func(t *testing.T) {
		a := testCandidate{name: "a", skills: []string{"sql"}}
		b := testCandidate{name: "b", skills: []string{"sql"}}
		best, _ := m.FindBestAgent("sql please", []Candidate{a, b})
		require.NotNil(t, best)
		assert.Equal(t, "a", best.(testCandidate).name)

		best, _ = m.FindBestAgent("sql please", []Candidate{b, a})
		assert.Equal(t, "b", best.(testCandidate).name)
	})
}

func TestFindBest_Typed(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	candidates := []testCandidate{
		{name: "ops", skills: []string{"docker", "kubernetes"}},
		{name: "qa", skills: []string{"testing", "qa"}},
	}

	best, score, ok := FindBest(m, "ship it to kubernetes with docker", candidates)
	require.True(t, ok)
	assert.Equal(t, "ops", best.name)
	assert.InDelta(t, 1.0, score, 1e-9)

	_, _, ok = FindBest(m, "nothing relevant", candidates)
	assert.False(t, ok)
}

func TestCountMatches(t *testing.T) {
	assert.Equal(t, 0, CountMatches("anything", nil))
	assert.Equal(t, 2, CountMatches("Deploy the API server", []string{"api", "server", "ui"}))
	// synonyms do not count
	assert.Equal(t, 0, CountMatches("I need help with the UI design", []string{"frontend"}))
}

func TestSynonymsFor_ReturnsCopy(t *testing.T) {
	words := synonymsFor("frontend")
	require.NotEmpty(t, words)
	words[0] = "changed"
	assert.Equal(t, "ui", synonymsFor("frontend")[0])
	assert.Nil(t, synonymsFor("unknown"))
}

func TestLower(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FIX THE API", "fix the api"},
		{"İnterface", "i\u0307nterface"},
		{"ÉCOLE", "école"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Lower(tt.in), tt.in)
	}
	assert.Equal(t, 0, CountMatches("İNTERFACE work", []string{"interface"}))
	assert.Equal(t, 1, CountMatches("INTERFACE work", []string{"interface"}))
}

func TestCalculateSkillMatch_Concurrent(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	done := make(chan float64, 16)
	for i := 0; i < 16; i++ {
		go func(i int) {
			done <- m.CalculateSkillMatch(fmt.Sprintf("react ui %d", i), []string{"frontend", "react"})
		}(i)
	}
	for i := 0; i < 16; i++ {
		assert.InDelta(t, 0.75, <-done, 1e-9)
	}
}
