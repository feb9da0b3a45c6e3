package skills

import (
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"
)

var propertySkillPool = []string{
	"frontend", "backend", "database", "api", "chat", "security", "testing", "deployment",
	"react", "sql", "docker", "orm", "neon", "ui", "tls",
}

func genRequest() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-zA-Z ,.!?/_-]{0,80}`)
}

func genSkills() *rapid.Generator[[]string] {
	return rapid.SliceOfN(rapid.SampledFrom(propertySkillPool), 0, 8)
}

// Scores always stay inside [0, 1] and are zero for empty skill lists.
func TestProperty_SkillMatchBounded(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	rapid.Check(t, func(rt *rapid.T) {
		request := genRequest().Draw(rt, "request")
		skills := genSkills().Draw(rt, "skills")

		score := m.CalculateSkillMatch(request, skills)
		if score < 0 || score > 1 {
			rt.Fatalf("score %v out of range", score)
		}
		if len(skills) == 0 && score != 0 {
			rt.Fatalf("empty skills scored %v", score)
		}
	})
}

// The winner is a member of the input, and nil only when every candidate scores zero.
func TestProperty_FindBestAgentMembership(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	rapid.Check(t, func(rt *rapid.T) {
		request := genRequest().Draw(rt, "request")
		n := rapid.IntRange(0, 6).Draw(rt, "n")

		candidates := make([]testCandidate, n)
		for i := range candidates {
			candidates[i] = testCandidate{name: string(rune('a' + i)), skills: genSkills().Draw(rt, "skills")}
		}

		best, score, ok := FindBest(m, request, candidates)
		if !ok {
			for _, c := range candidates {
				if m.CalculateSkillMatch(request, c.skills) > 0 {
					rt.Fatalf("candidate %s scored above zero but none returned", c.name)
				}
			}
			return
		}

		firstMax := -1
		for i, c := range candidates {
			s := m.CalculateSkillMatch(request, c.skills)
			if s > score {
				rt.Fatalf("candidate %s scored %v above winner %v", c.name, s, score)
			}
			if s == score && firstMax < 0 {
				firstMax = i
			}
		}
		if firstMax < 0 || candidates[firstMax].name != best.name {
			rt.Fatalf("winner %s is not the first maximal candidate", best.name)
		}
	})
}

// Duplicating the candidate list never changes the winner.
func TestProperty_TieKeepsFirst(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	rapid.Check(t, func(rt *rapid.T) {
		request := genRequest().Draw(rt, "request")
		skills := genSkills().Draw(rt, "skills")

		a := testCandidate{name: "a", skills: skills}
		b := testCandidate{name: "b", skills: append([]string(nil), skills...)}

		best, _, ok := FindBest(m, request, []testCandidate{a, b})
		if ok && best.name != "a" {
			rt.Fatalf("tie resolved to %s", best.name)
		}
	})
}
