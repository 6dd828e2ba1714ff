// Package trend derives classified facts from a student's grade history.
// Analyze is a pure function: same history in, same facts out, nothing
// else touched.
package trend

import (
	"fmt"
	"sort"

	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

type Kind string

const (
	KindSignificantImprovement Kind = "significant_improvement"
	KindSteadyImprovement      Kind = "steady_improvement"
	KindExcellence             Kind = "excellence"
	KindOverallImprovement     Kind = "overall_improvement"
	KindHighAverage            Kind = "high_average"
)

// Thresholds are absolute percentage points on the [0,100] score scale,
// not percent-of-baseline ratios.
const (
	SignificantDelta = 20.0
	SteadyDelta      = 10.0
	ExcellenceScore  = 90.0
	OverallGain      = 15.0
	HighAverageScore = 85.0
)

// Fact is one classified observation. Subject is empty for whole-student
// facts. Magnitude is the delta for improvement kinds, the score for
// excellence, the gain for overall improvement and the average for high
// average. Evidence carries the concrete numbers a teacher can verify.
type Fact struct {
	Kind      Kind
	Subject   string
	Magnitude float64
	Evidence  string
}

type termKey struct {
	Year   int
	Number int
}

// Analyze walks the history chronologically and emits facts. A single
// term yields excellence flags at most; an empty history yields nothing.
// Negative or small deltas emit no fact: this engine only proposes
// positive achievements.
func Analyze(history []model.GradeRow) []Fact {
	if len(history) == 0 {
		return nil
	}

	terms, termNames := termOrder(history)
	bySubject := map[string]map[termKey]float64{}
	for _, row := range history {
		key := termKey{Year: row.AcademicYear, Number: row.TermNumber}
		if bySubject[row.SubjectName] == nil {
			bySubject[row.SubjectName] = map[termKey]float64{}
		}
		bySubject[row.SubjectName][key] = row.Score
	}

	subjects := make([]string, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	var facts []Fact

	for _, subject := range subjects {
		scores := bySubject[subject]

		// Adjacent-term deltas, only where both terms have a score.
		for i := 1; i < len(terms); i++ {
			prev, okPrev := scores[terms[i-1]]
			cur, okCur := scores[terms[i]]
			if !okPrev || !okCur {
				continue
			}
			delta := cur - prev
			evidence := fmt.Sprintf("%+.1f points in %s between %s and %s",
				delta, subject, termNames[terms[i-1]], termNames[terms[i]])
			switch {
			case delta >= SignificantDelta:
				facts = append(facts, Fact{Kind: KindSignificantImprovement, Subject: subject, Magnitude: delta, Evidence: evidence})
			case delta >= SteadyDelta:
				facts = append(facts, Fact{Kind: KindSteadyImprovement, Subject: subject, Magnitude: delta, Evidence: evidence})
			}
		}

		// Excellence on the latest term that has a score for the subject.
		for i := len(terms) - 1; i >= 0; i-- {
			score, ok := scores[terms[i]]
			if !ok {
				continue
			}
			if score >= ExcellenceScore {
				facts = append(facts, Fact{
					Kind:      KindExcellence,
					Subject:   subject,
					Magnitude: score,
					Evidence:  fmt.Sprintf("Scored %.0f in %s in %s", score, subject, termNames[terms[i]]),
				})
			}
			break
		}
	}

	facts = append(facts, wholeStudentFacts(terms, termNames, bySubject, subjects)...)
	return facts
}

// wholeStudentFacts compares the earliest and latest term averages and
// checks the latest-term average. Both need at least two terms or two
// subjects of data; with less the facts are simply absent.
func wholeStudentFacts(terms []termKey, termNames map[termKey]string, bySubject map[string]map[termKey]float64, subjects []string) []Fact {
	var facts []Fact

	if len(terms) >= 2 {
		earliest, latest := terms[0], terms[len(terms)-1]
		common := false
		for _, subject := range subjects {
			_, okEarliest := bySubject[subject][earliest]
			_, okLatest := bySubject[subject][latest]
			if okEarliest && okLatest {
				common = true
				break
			}
		}
		earliestAvg, okEarliest := termAverage(bySubject, subjects, earliest)
		latestAvg, okLatest := termAverage(bySubject, subjects, latest)
		if common && okEarliest && okLatest {
			gain := latestAvg - earliestAvg
			if gain >= OverallGain {
				facts = append(facts, Fact{
					Kind:      KindOverallImprovement,
					Magnitude: gain,
					Evidence: fmt.Sprintf("Average rose %.1f points from %.1f in %s to %.1f in %s",
						gain, earliestAvg, termNames[earliest], latestAvg, termNames[latest]),
				})
			}
		}
	}

	latest := terms[len(terms)-1]
	latestAvg, ok := termAverage(bySubject, subjects, latest)
	if ok {
		count := subjectCount(bySubject, subjects, latest)
		if count >= 2 && latestAvg >= HighAverageScore {
			facts = append(facts, Fact{
				Kind:      KindHighAverage,
				Magnitude: latestAvg,
				Evidence: fmt.Sprintf("Averaged %.1f across %d subjects in %s",
					latestAvg, count, termNames[latest]),
			})
		}
	}

	return facts
}

func termOrder(history []model.GradeRow) ([]termKey, map[termKey]string) {
	names := map[termKey]string{}
	var keys []termKey
	for _, row := range history {
		key := termKey{Year: row.AcademicYear, Number: row.TermNumber}
		if _, seen := names[key]; !seen {
			names[key] = row.TermName
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Number < keys[j].Number
	})
	return keys, names
}

func termAverage(bySubject map[string]map[termKey]float64, subjects []string, term termKey) (float64, bool) {
	var sum float64
	var count int
	for _, subject := range subjects {
		if score, ok := bySubject[subject][term]; ok {
			sum += score
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func subjectCount(bySubject map[string]map[termKey]float64, subjects []string, term termKey) int {
	count := 0
	for _, subject := range subjects {
		if _, ok := bySubject[subject][term]; ok {
			count++
		}
	}
	return count
}
