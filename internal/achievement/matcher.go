package achievement

import (
	"sort"

	"github.com/shiyun-ho/report-card-sub001/internal/model"
	"github.com/shiyun-ho/report-card-sub001/internal/trend"
)

// Relevance bands. Bands do not overlap, so every significant-improvement
// match outranks every steady-progress match, and so on down to the
// whole-student kinds. Within a band the score grows monotonically with
// the fact's magnitude.
func relevance(fact trend.Fact) float64 {
	switch fact.Kind {
	case trend.KindSignificantImprovement:
		return 0.75 + 0.25*unit((fact.Magnitude-trend.SignificantDelta)/(100-trend.SignificantDelta))
	case trend.KindSteadyImprovement:
		return 0.50 + 0.25*unit((fact.Magnitude-trend.SteadyDelta)/(trend.SignificantDelta-trend.SteadyDelta))
	case trend.KindExcellence:
		return 0.25 + 0.25*unit((fact.Magnitude-trend.ExcellenceScore)/(100-trend.ExcellenceScore))
	case trend.KindOverallImprovement:
		return 0.25 * unit((fact.Magnitude-trend.OverallGain)/(100-trend.OverallGain))
	case trend.KindHighAverage:
		return 0.25 * unit((fact.Magnitude-trend.HighAverageScore)/(100-trend.HighAverageScore))
	default:
		return 0
	}
}

// Tie-break precedence between equal relevance scores: per-subject kinds
// first, whole-student kinds last.
func precedence(kind trend.Kind) int {
	switch kind {
	case trend.KindSignificantImprovement:
		return 4
	case trend.KindSteadyImprovement:
		return 3
	case trend.KindExcellence:
		return 2
	case trend.KindOverallImprovement:
		return 1
	case trend.KindHighAverage:
		return 0
	default:
		return -1
	}
}

func unit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

type Matcher struct {
	catalog []model.CatalogEntry
}

// NewMatcher copies the catalog once; the matcher never mutates it, so one
// instance is safe under parallel requests.
func NewMatcher(catalog []model.CatalogEntry) *Matcher {
	owned := make([]model.CatalogEntry, len(catalog))
	copy(owned, catalog)
	return &Matcher{catalog: owned}
}

type match struct {
	entry model.CatalogEntry
	fact  trend.Fact
	score float64
}

// Match maps facts to catalog entries, dedupes per entry keeping the
// higher-scoring hit, and returns suggestions sorted by relevance
// descending with deterministic tie-breaks.
func (m *Matcher) Match(facts []trend.Fact) []model.Suggestion {
	best := map[string]match{}
	for _, fact := range facts {
		for _, entry := range m.catalog {
			if !Matches(entry, fact) {
				continue
			}
			candidate := match{entry: entry, fact: fact, score: relevance(fact)}
			current, seen := best[entry.Title]
			if !seen || candidate.score > current.score {
				best[entry.Title] = candidate
			}
		}
	}

	matches := make([]match, 0, len(best))
	for _, hit := range best {
		matches = append(matches, hit)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		pi, pj := precedence(matches[i].fact.Kind), precedence(matches[j].fact.Kind)
		if pi != pj {
			return pi > pj
		}
		if matches[i].fact.Subject != matches[j].fact.Subject {
			return matches[i].fact.Subject < matches[j].fact.Subject
		}
		return matches[i].entry.Title < matches[j].entry.Title
	})

	suggestions := make([]model.Suggestion, 0, len(matches))
	for _, hit := range matches {
		entry := hit.entry
		score := hit.score
		suggestions = append(suggestions, model.Suggestion{
			CatalogID:      &entry.ID,
			Title:          entry.Title,
			Description:    entry.Description,
			Category:       entry.Category,
			RelevanceScore: &score,
			Justification:  hit.fact.Evidence,
		})
	}
	return suggestions
}
