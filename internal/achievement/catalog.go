// Package achievement matches trend facts against the achievement catalog
// and ranks the results.
package achievement

import (
	"github.com/shiyun-ho/report-card-sub001/internal/model"
	"github.com/shiyun-ho/report-card-sub001/internal/trend"
)

const (
	CategorySubject = "subject"
	CategoryOverall = "overall"
)

// Matches reports whether a catalog entry's predicate accepts a fact. A
// subject-specific entry only accepts facts for its own subject; an entry
// with no subject accepts whole-student facts.
func Matches(entry model.CatalogEntry, fact trend.Fact) bool {
	if entry.Kind != string(fact.Kind) {
		return false
	}
	if entry.Subject != fact.Subject {
		return false
	}
	return fact.Magnitude >= entry.MinValue
}

// DefaultCatalog mirrors the seeded achievement catalog: one significant,
// steady and excellence entry per subject, plus the two whole-student
// entries. IDs are assigned at insert time by the database.
func DefaultCatalog() []model.CatalogEntry {
	subjects := []string{"Chinese", "English", "Mathematics", "Science"}
	var entries []model.CatalogEntry
	for _, subject := range subjects {
		entries = append(entries,
			model.CatalogEntry{
				Title:       "Significant improvement in " + subject,
				Description: "20 or more points of improvement in " + subject + " between consecutive terms",
				Category:    CategorySubject,
				Kind:        string(trend.KindSignificantImprovement),
				Subject:     subject,
				MinValue:    trend.SignificantDelta,
			},
			model.CatalogEntry{
				Title:       "Steady progress in " + subject,
				Description: "10 to 19 points of improvement in " + subject + " between consecutive terms",
				Category:    CategorySubject,
				Kind:        string(trend.KindSteadyImprovement),
				Subject:     subject,
				MinValue:    trend.SteadyDelta,
			},
			model.CatalogEntry{
				Title:       "Excellence in " + subject,
				Description: "Scored 90 or above in " + subject,
				Category:    CategorySubject,
				Kind:        string(trend.KindExcellence),
				Subject:     subject,
				MinValue:    trend.ExcellenceScore,
			},
		)
	}
	entries = append(entries,
		model.CatalogEntry{
			Title:       "Overall academic improvement",
			Description: "15 or more points of average improvement across all subjects",
			Category:    CategoryOverall,
			Kind:        string(trend.KindOverallImprovement),
			MinValue:    trend.OverallGain,
		},
		model.CatalogEntry{
			Title:       "Consistent high performance",
			Description: "Maintained an average of 85 or above across all subjects",
			Category:    CategoryOverall,
			Kind:        string(trend.KindHighAverage),
			MinValue:    trend.HighAverageScore,
		},
	)
	return entries
}
