package achievement

import (
	"testing"

	"github.com/shiyun-ho/report-card-sub001/internal/trend"
)

func newTestMatcher() *Matcher {
	catalog := DefaultCatalog()
	for i := range catalog {
		catalog[i].ID = catalog[i].Title
	}
	return NewMatcher(catalog)
}

func TestSignificantOutranksExcellence(t *testing.T) {
	matcher := newTestMatcher()
	facts := []trend.Fact{
		{Kind: trend.KindExcellence, Subject: "Science", Magnitude: 98, Evidence: "Scored 98 in Science in Term 2"},
		{Kind: trend.KindSignificantImprovement, Subject: "Mathematics", Magnitude: 21, Evidence: "+21.0 points in Mathematics between Term 1 and Term 2"},
	}
	suggestions := matcher.Match(facts)
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Title != "Significant improvement in Mathematics" {
		t.Fatalf("expected significant improvement first, got %s", suggestions[0].Title)
	}
	if *suggestions[0].RelevanceScore <= *suggestions[1].RelevanceScore {
		t.Fatalf("expected strictly higher relevance for significant improvement")
	}
}

func TestBandOrderingAcrossKinds(t *testing.T) {
	matcher := newTestMatcher()
	facts := []trend.Fact{
		{Kind: trend.KindOverallImprovement, Magnitude: 40, Evidence: "Average rose 40.0 points from 40.0 in Term 1 to 80.0 in Term 3"},
		{Kind: trend.KindExcellence, Subject: "English", Magnitude: 100, Evidence: "Scored 100 in English in Term 3"},
		{Kind: trend.KindSteadyImprovement, Subject: "Science", Magnitude: 10, Evidence: "+10.0 points in Science between Term 1 and Term 2"},
		{Kind: trend.KindSignificantImprovement, Subject: "Chinese", Magnitude: 20, Evidence: "+20.0 points in Chinese between Term 2 and Term 3"},
	}
	suggestions := matcher.Match(facts)
	if len(suggestions) != 4 {
		t.Fatalf("expected 4 suggestions, got %d", len(suggestions))
	}
	order := []string{
		"Significant improvement in Chinese",
		"Steady progress in Science",
		"Excellence in English",
		"Overall academic improvement",
	}
	for i, title := range order {
		if suggestions[i].Title != title {
			t.Fatalf("position %d: expected %s, got %s", i, title, suggestions[i].Title)
		}
	}
}

func TestRelevanceMonotonicWithinBand(t *testing.T) {
	low := relevance(trend.Fact{Kind: trend.KindSignificantImprovement, Magnitude: 20})
	high := relevance(trend.Fact{Kind: trend.KindSignificantImprovement, Magnitude: 40})
	if high <= low {
		t.Fatalf("expected delta 40 to score above delta 20, got %.3f vs %.3f", high, low)
	}
	if low < 0.75 || high > 1.0 {
		t.Fatalf("significant band out of range: %.3f, %.3f", low, high)
	}
	steady := relevance(trend.Fact{Kind: trend.KindSteadyImprovement, Magnitude: 19.9})
	if steady >= 0.75 {
		t.Fatalf("steady band must stay below significant band, got %.3f", steady)
	}
}

func TestDeduplicationKeepsHigherScore(t *testing.T) {
	matcher := newTestMatcher()
	facts := []trend.Fact{
		{Kind: trend.KindSignificantImprovement, Subject: "Mathematics", Magnitude: 22, Evidence: "+22.0 points in Mathematics between Term 1 and Term 2"},
		{Kind: trend.KindSignificantImprovement, Subject: "Mathematics", Magnitude: 30, Evidence: "+30.0 points in Mathematics between Term 2 and Term 3"},
	}
	suggestions := matcher.Match(facts)
	if len(suggestions) != 1 {
		t.Fatalf("expected one deduplicated suggestion, got %d", len(suggestions))
	}
	if suggestions[0].Justification != "+30.0 points in Mathematics between Term 2 and Term 3" {
		t.Fatalf("expected the higher-scoring occurrence to win, got %s", suggestions[0].Justification)
	}
}

func TestJustificationCarriesEvidence(t *testing.T) {
	matcher := newTestMatcher()
	facts := []trend.Fact{
		{Kind: trend.KindExcellence, Subject: "Science", Magnitude: 93, Evidence: "Scored 93 in Science in Term 2"},
	}
	suggestions := matcher.Match(facts)
	if len(suggestions) != 1 {
		t.Fatalf("expected one suggestion, got %d", len(suggestions))
	}
	if suggestions[0].Justification != "Scored 93 in Science in Term 2" {
		t.Fatalf("justification must carry the numeric evidence, got %q", suggestions[0].Justification)
	}
	if suggestions[0].CatalogID == nil || *suggestions[0].CatalogID == "" {
		t.Fatalf("matcher output must reference a catalog entry")
	}
	if suggestions[0].IsCustom {
		t.Fatalf("matcher must never emit custom entries")
	}
}

func TestNoFactsNoSuggestions(t *testing.T) {
	matcher := newTestMatcher()
	if suggestions := matcher.Match(nil); len(suggestions) != 0 {
		t.Fatalf("expected empty result, got %v", suggestions)
	}
}

func TestTieBreakBySubjectName(t *testing.T) {
	matcher := newTestMatcher()
	facts := []trend.Fact{
		{Kind: trend.KindExcellence, Subject: "Science", Magnitude: 90, Evidence: "Scored 90 in Science in Term 1"},
		{Kind: trend.KindExcellence, Subject: "English", Magnitude: 90, Evidence: "Scored 90 in English in Term 1"},
	}
	suggestions := matcher.Match(facts)
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Title != "Excellence in English" || suggestions[1].Title != "Excellence in Science" {
		t.Fatalf("expected subject-name tie-break, got %s then %s", suggestions[0].Title, suggestions[1].Title)
	}
}
