package trend

import (
	"testing"

	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

func row(year, number int, termName, subject string, score float64) model.GradeRow {
	return model.GradeRow{
		TermID:       termName,
		TermName:     termName,
		AcademicYear: year,
		TermNumber:   number,
		SubjectID:    subject,
		SubjectCode:  subject,
		SubjectName:  subject,
		Score:        score,
	}
}

func findFact(facts []Fact, kind Kind, subject string) *Fact {
	for i := range facts {
		if facts[i].Kind == kind && facts[i].Subject == subject {
			return &facts[i]
		}
	}
	return nil
}

func TestDeltaClassificationBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		first  float64
		second float64
		expect Kind
	}{
		{"delta 20 is significant", 60, 80, KindSignificantImprovement},
		{"delta 10 is steady", 60, 70, KindSteadyImprovement},
		{"delta 9 is nothing", 60, 69, ""},
		{"negative delta is nothing", 80, 60, ""},
	}
	for _, tc := range cases {
		history := []model.GradeRow{
			row(2024, 1, "Term 1", "Mathematics", tc.first),
			row(2024, 2, "Term 2", "Mathematics", tc.second),
		}
		facts := Analyze(history)
		significant := findFact(facts, KindSignificantImprovement, "Mathematics")
		steady := findFact(facts, KindSteadyImprovement, "Mathematics")
		switch tc.expect {
		case KindSignificantImprovement:
			if significant == nil || steady != nil {
				t.Fatalf("%s: expected significant only, got %v", tc.name, facts)
			}
		case KindSteadyImprovement:
			if steady == nil || significant != nil {
				t.Fatalf("%s: expected steady only, got %v", tc.name, facts)
			}
		default:
			if significant != nil || steady != nil {
				t.Fatalf("%s: expected no delta fact, got %v", tc.name, facts)
			}
		}
	}
}

func TestSingleTermYieldsExcellenceOnly(t *testing.T) {
	facts := Analyze([]model.GradeRow{row(2024, 1, "Term 1", "Science", 92)})
	if len(facts) != 1 {
		t.Fatalf("expected exactly one fact, got %v", facts)
	}
	if facts[0].Kind != KindExcellence || facts[0].Magnitude != 92 {
		t.Fatalf("expected excellence at 92, got %+v", facts[0])
	}
	if facts[0].Evidence != "Scored 92 in Science in Term 1" {
		t.Fatalf("unexpected evidence: %s", facts[0].Evidence)
	}
}

func TestExcellenceUsesLatestRecordedTerm(t *testing.T) {
	history := []model.GradeRow{
		row(2024, 1, "Term 1", "English", 95),
		row(2024, 2, "Term 2", "English", 80),
	}
	if fact := findFact(Analyze(history), KindExcellence, "English"); fact != nil {
		t.Fatalf("expected no excellence flag when latest score is 80, got %+v", fact)
	}
}

func TestOverallTrendBoundary(t *testing.T) {
	// Average 60 in the earliest term, 76 in the latest: gain 16, present.
	history := []model.GradeRow{
		row(2024, 1, "Term 1", "English", 55),
		row(2024, 1, "Term 1", "Mathematics", 65),
		row(2024, 3, "Term 3", "English", 71),
		row(2024, 3, "Term 3", "Mathematics", 81),
	}
	fact := findFact(Analyze(history), KindOverallImprovement, "")
	if fact == nil {
		t.Fatalf("expected overall improvement at gain 16")
	}
	if fact.Magnitude != 16 {
		t.Fatalf("expected gain 16, got %.1f", fact.Magnitude)
	}

	// Gain 14: absent.
	history = []model.GradeRow{
		row(2024, 1, "Term 1", "English", 55),
		row(2024, 1, "Term 1", "Mathematics", 65),
		row(2024, 3, "Term 3", "English", 69),
		row(2024, 3, "Term 3", "Mathematics", 79),
	}
	if fact := findFact(Analyze(history), KindOverallImprovement, ""); fact != nil {
		t.Fatalf("expected no overall improvement at gain 14, got %+v", fact)
	}
}

func TestOverallTrendNeedsTwoTermsWithCommonSubject(t *testing.T) {
	history := []model.GradeRow{
		row(2024, 1, "Term 1", "English", 40),
		row(2024, 2, "Term 2", "Mathematics", 90),
	}
	if fact := findFact(Analyze(history), KindOverallImprovement, ""); fact != nil {
		t.Fatalf("expected no overall fact without a common subject, got %+v", fact)
	}
}

func TestHighAverageNeedsTwoSubjects(t *testing.T) {
	history := []model.GradeRow{
		row(2024, 1, "Term 1", "English", 88),
		row(2024, 1, "Term 1", "Mathematics", 86),
	}
	fact := findFact(Analyze(history), KindHighAverage, "")
	if fact == nil {
		t.Fatalf("expected high-average fact at 87.0")
	}
	if fact.Magnitude != 87 {
		t.Fatalf("expected average 87, got %.1f", fact.Magnitude)
	}

	solo := Analyze([]model.GradeRow{row(2024, 1, "Term 1", "English", 96)})
	if fact := findFact(solo, KindHighAverage, ""); fact != nil {
		t.Fatalf("expected no high-average fact with one subject, got %+v", fact)
	}
}

func TestDeltaEvidenceNamesTermsAndPoints(t *testing.T) {
	history := []model.GradeRow{
		row(2024, 1, "Term 1", "Mathematics", 58),
		row(2024, 2, "Term 2", "Mathematics", 80),
	}
	fact := findFact(Analyze(history), KindSignificantImprovement, "Mathematics")
	if fact == nil {
		t.Fatalf("expected significant improvement fact")
	}
	if fact.Evidence != "+22.0 points in Mathematics between Term 1 and Term 2" {
		t.Fatalf("unexpected evidence: %s", fact.Evidence)
	}
}

func TestMissingMiddleTermProducesNoPairDelta(t *testing.T) {
	// Term 2 has no Mathematics score, so neither adjacent pair has both
	// endpoints recorded.
	history := []model.GradeRow{
		row(2024, 1, "Term 1", "Mathematics", 50),
		row(2024, 2, "Term 2", "English", 60),
		row(2024, 3, "Term 3", "Mathematics", 85),
	}
	facts := Analyze(history)
	if fact := findFact(facts, KindSignificantImprovement, "Mathematics"); fact != nil {
		t.Fatalf("expected no delta across a gap, got %+v", fact)
	}
	if fact := findFact(facts, KindSteadyImprovement, "Mathematics"); fact != nil {
		t.Fatalf("expected no delta across a gap, got %+v", fact)
	}
}

func TestEmptyHistoryYieldsNoFacts(t *testing.T) {
	if facts := Analyze(nil); len(facts) != 0 {
		t.Fatalf("expected no facts, got %v", facts)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	history := []model.GradeRow{
		row(2024, 1, "Term 1", "English", 55),
		row(2024, 1, "Term 1", "Mathematics", 60),
		row(2024, 2, "Term 2", "English", 70),
		row(2024, 2, "Term 2", "Mathematics", 92),
	}
	first := Analyze(history)
	second := Analyze(history)
	if len(first) != len(second) {
		t.Fatalf("expected identical fact counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("fact %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
