package analysis

import (
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/agent/skills"
)

// Complexity is a coarse effort label.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Complexity thresholds.
const (
	shortTaskWords     = 10
	longTaskWords      = 50
	technicalDensityHi = 0.15
)

// Word characters are Unicode letters, numbers and underscore; the
// boundary is spelled out so it agrees with them.
const (
	wordChar     = `[\p{L}\p{N}_]`
	wordBoundary = `(?:(?<=` + wordChar + `)(?!` + wordChar + `)|(?<!` + wordChar + `)(?=` + wordChar + `))`
)

// technicalTerm matches camelCase/PascalCase identifiers and tokens
// joined by a slash, underscore or hyphen.
var technicalTerm = regexp2.MustCompile(
	wordBoundary+`[a-zA-Z][a-z]*[A-Z][a-zA-Z0-9]*`+wordBoundary+
		`|`+wordBoundary+wordChar+`*[/_-]`+wordChar+`*`+wordBoundary,
	regexp2.None,
)

var timeEstimates = map[Complexity]string{
	ComplexityLow:    "10-30 minutes",
	ComplexityMedium: "1-3 hours",
	ComplexityHigh:   "3-8 hours",
}

// TaskAnalysis is the result of AnalyzeTask.
type TaskAnalysis struct {
	Category      Category   `json:"category"`
	Confidence    float64    `json:"confidence"`
	Complexity    Complexity `json:"complexity"`
	KeywordsFound []string   `json:"keywords_found"`
	EstimatedTime string     `json:"estimated_time"`
}

// Analyzer classifies task descriptions. It is stateless.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer over the static keyword table.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger.With(zap.String("component", "task_analyzer"))}
}

// AnalyzeTask scores description against every category and derives
// complexity and a time estimate.
func (a *Analyzer) AnalyzeTask(description string) TaskAnalysis {
	lower := skills.Lower(description)

	best := categoryKeywords[0].category
	bestScore := -1.0
	for _, ck := range categoryKeywords {
		score := categoryScore(lower, ck.keywords)
		if score > bestScore {
			best, bestScore = ck.category, score
		}
	}

	complexity := EstimateComplexity(description)
	result := TaskAnalysis{
		Category:      best,
		Confidence:    bestScore,
		Complexity:    complexity,
		KeywordsFound: matchedKeywords(lower),
		EstimatedTime: EstimateTime(complexity),
	}

	a.logger.Debug("task analyzed",
		zap.String("category", string(result.Category)),
		zap.Float64("confidence", result.Confidence),
		zap.String("complexity", string(result.Complexity)),
		zap.Int("keywords", len(result.KeywordsFound)),
	)
	return result
}

// CategoryScore returns the fraction of keywords contained in description.
func CategoryScore(description string, keywords []string) float64 {
	return categoryScore(skills.Lower(description), keywords)
}

func categoryScore(lower string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// EstimateComplexity labels description by word count and technical-term density.
// Under ten words is always low.
func EstimateComplexity(description string) Complexity {
	words := len(strings.Fields(description))
	terms := len(technicalTerms(description))
	density := float64(terms) / float64(max(words, 1))

	switch {
	case words < shortTaskWords:
		return ComplexityLow
	case density > technicalDensityHi || words > longTaskWords:
		return ComplexityHigh
	default:
		return ComplexityMedium
	}
}

// technicalTerms returns every non-overlapping technicalTerm match, left
// to right.
func technicalTerms(s string) []string {
	var terms []string
	m, err := technicalTerm.FindStringMatch(s)
	for err == nil && m != nil {
		terms = append(terms, m.String())
		m, err = technicalTerm.FindNextMatch(m)
	}
	return terms
}

// EstimateTime maps a complexity label to a human readable effort range.
func EstimateTime(c Complexity) string {
	if est, ok := timeEstimates[c]; ok {
		return est
	}
	return "Unknown"
}

// MatchedKeywords returns every keyword from every category found in
// description, deduplicated and sorted.
func MatchedKeywords(description string) []string {
	return matchedKeywords(skills.Lower(description))
}

func matchedKeywords(lower string) []string {
	seen := make(map[string]struct{})
	found := make([]string, 0)
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if _, dup := seen[kw]; dup {
				continue
			}
			if strings.Contains(lower, kw) {
				seen[kw] = struct{}{}
				found = append(found, kw)
			}
		}
	}
	sort.Strings(found)
	return found
}
