package analysis

import (
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

var propertyWords = []string{
	"react", "api", "postgres", "chat", "research", "test", "security", "docker",
	"the", "a", "please", "userService", "auth_handler", "x/y", "Build", "rapid",
	"deployment", "ui", "quality", "日本",
}

func joinWords(idx []int) string {
	words := make([]string, len(idx))
	for i, n := range idx {
		words[i] = propertyWords[n]
	}
	return strings.Join(words, " ")
}

func TestProperty_AnalyzeTaskWellFormed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	a := NewAnalyzer(zap.NewNop())

	properties.Property("confidence is the best category score", prop.ForAll(
		func(idx []int) bool {
			desc := joinWords(idx)
			got := a.AnalyzeTask(desc)

			if got.Confidence < 0 || got.Confidence > 1 {
				return false
			}
			for _, c := range scoredCategories() {
				if CategoryScore(desc, keywordsFor(c)) > got.Confidence {
					return false
				}
			}
			return CategoryScore(desc, keywordsFor(got.Category)) == got.Confidence
		},
		gen.SliceOf(gen.IntRange(0, len(propertyWords)-1)),
	))

	properties.Property("ties resolve to the first declared category", prop.ForAll(
		func(idx []int) bool {
			desc := joinWords(idx)
			got := a.AnalyzeTask(desc)
			for _, c := range scoredCategories() {
				if CategoryScore(desc, keywordsFor(c)) == got.Confidence {
					return c == got.Category
				}
			}
			return false
		},
		gen.SliceOf(gen.IntRange(0, len(propertyWords)-1)),
	))

	properties.Property("complexity and estimate are always known", prop.ForAll(
		func(idx []int) bool {
			got := a.AnalyzeTask(joinWords(idx))
			switch got.Complexity {
			case ComplexityLow, ComplexityMedium, ComplexityHigh:
			default:
				return false
			}
			if len(idx) < 10 && got.Complexity != ComplexityLow {
				return false
			}
			return got.EstimatedTime != "Unknown"
		},
		gen.SliceOf(gen.IntRange(0, len(propertyWords)-1)),
	))

	properties.Property("keywords are sorted and unique", prop.ForAll(
		func(idx []int) bool {
			got := a.AnalyzeTask(joinWords(idx)).KeywordsFound
			if !sort.StringsAreSorted(got) {
				return false
			}
			for i := 1; i < len(got); i++ {
				if got[i] == got[i-1] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(propertyWords)-1)),
	))

	properties.TestingRun(t)
}
