package skills

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Candidate is anything that declares skill tags.
type Candidate interface {
	Skills() []string
}

// Matcher scores requests against candidate skill sets.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher creates a matcher backed by the static synonym table.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger.With(zap.String("component", "skill_matcher"))}
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// CalculateSkillMatch returns the fraction of skills found in request.
// A skill contained in the request counts 1.0, a synonym hit counts 0.5.
func (m *Matcher) CalculateSkillMatch(request string, skills []string) float64 {
	if len(skills) == 0 {
		return 0
	}

	lower := Lower(request)
	matched := 0.0
	for _, skill := range skills {
		s := Lower(skill)
		if strings.Contains(lower, s) {
			matched += 1.0
		} else if m.HasSynonymMatch(s, request) {
			matched += 0.5
		}
	}

	return min(matched/float64(len(skills)), 1.0)
}

// HasSynonymMatch reports whether any cleaned word of request equals a
// synonym of skill.
func (m *Matcher) HasSynonymMatch(skill, request string) bool {
	words, ok := synonyms[Lower(skill)]
	if !ok {
		return false
	}

	for _, raw := range strings.Fields(request) {
		w := cleanWord(raw)
		if w == "" {
			continue
		}
		for _, syn := range words {
			if w == syn {
				return true
			}
		}
	}
	return false
}

// FindBestAgent returns the highest scoring candidate and its score.
// Ties keep the earlier candidate. nil, 0 means nothing scored above zero.
func (m *Matcher) FindBestAgent(request string, candidates []Candidate) (Candidate, float64) {
	best, score, ok := FindBest(m, request, candidates)
	if !ok {
		return nil, 0
	}
	return best, score
}

// FindBest is the typed form of FindBestAgent.
func FindBest[C Candidate](m *Matcher, request string, candidates []C) (C, float64, bool) {
	var (
		best      C
		bestScore float64
		found     bool
	)

	for _, c := range candidates {
		score := m.CalculateSkillMatch(request, c.Skills())
		if score > bestScore {
			best, bestScore, found = c, score, true
		}
	}

	m.logger.Debug("skill match finished",
		zap.Int("candidates", len(candidates)),
		zap.Bool("found", found),
		zap.Float64("score", bestScore),
	)
	return best, bestScore, found
}

// CountMatches counts skills that occur verbatim in the lowercased request.
// No synonyms, no normalisation.
func CountMatches(request string, skills []string) int {
	lower := Lower(request)
	n := 0
	for _, skill := range skills {
		if strings.Contains(lower, Lower(skill)) {
			n++
		}
	}
	return n
}

// dottedCapitalI expands U+0130 to its full lowercase form ("i" plus a
// combining dot) so "İnterface" does not lowercase into "interface".
var dottedCapitalI = strings.NewReplacer("\u0130", "i\u0307")

// Lower lowercases s with full case mapping. It differs from
// strings.ToLower only for U+0130, the one letter whose lowercase form
// is two runes.
func Lower(s string) string {
	return strings.ToLower(dottedCapitalI.Replace(s))
}

// cleanWord keeps letters, numbers and underscores, lowercased.
func cleanWord(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
