// Package report compiles the finalized report-card payload handed to the
// external PDF renderer: term grades, the teacher's selected achievements
// (catalog picks and custom entries mixed), comments and the performance
// band.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shiyun-ho/report-card-sub001/internal/authz"
	"github.com/shiyun-ho/report-card-sub001/internal/grades"
	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

var ErrInvalidSelection = errors.New("invalid achievement selection")

// Roster resolves display data for the student being reported on. Callers
// are authorized before these lookups run.
type Roster interface {
	GetStudent(ctx context.Context, studentID string) (model.Student, error)
	GetClass(ctx context.Context, classID string) (model.Class, error)
}

type Service struct {
	resolver *authz.Resolver
	view     *grades.View
	roster   Roster
}

func NewService(resolver *authz.Resolver, view *grades.View, roster Roster) *Service {
	return &Service{resolver: resolver, view: view, roster: roster}
}

// Selection is the teacher's finalized input: a subset of system
// suggestions plus any custom entries, and free-form comments.
type Selection struct {
	Achievements []model.Suggestion `json:"achievements"`
	Comments     string             `json:"comments"`
}

type Report struct {
	StudentID    string             `json:"studentId"`
	StudentName  string             `json:"studentName"`
	ClassName    string             `json:"className"`
	TermID       string             `json:"termId"`
	TermName     string             `json:"termName"`
	Grades       []model.GradeRow   `json:"grades"`
	Average      float64            `json:"average"`
	Band         string             `json:"band"`
	Achievements []model.Suggestion `json:"achievements"`
	Comments     string             `json:"comments"`
	GeneratedAt  time.Time          `json:"generatedAt"`
}

// Assemble authorizes, gathers the term's grades and packages the final
// tuple. The selection is validated, not recomputed: the engine's
// suggestions were already scored, and custom entries carry no score.
func (s *Service) Assemble(ctx context.Context, caller model.User, studentID, termID string, selection Selection) (Report, error) {
	if err := s.resolver.AssertCanAccess(ctx, caller, studentID); err != nil {
		return Report{}, err
	}
	if err := validateSelection(selection); err != nil {
		return Report{}, err
	}

	rows, term, err := s.view.HistoryThrough(ctx, caller, studentID, termID)
	if err != nil {
		return Report{}, err
	}
	var termRows []model.GradeRow
	for _, row := range rows {
		if row.TermID == termID {
			termRows = append(termRows, row)
		}
	}

	student, err := s.roster.GetStudent(ctx, studentID)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", authz.ErrUpstreamUnavailable, err)
	}
	class, err := s.roster.GetClass(ctx, student.ClassID)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", authz.ErrUpstreamUnavailable, err)
	}

	average := averageScore(termRows)
	return Report{
		StudentID:    student.ID,
		StudentName:  student.FullName,
		ClassName:    class.Name,
		TermID:       term.ID,
		TermName:     term.Name,
		Grades:       termRows,
		Average:      average,
		Band:         PerformanceBand(average),
		Achievements: selection.Achievements,
		Comments:     selection.Comments,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func validateSelection(selection Selection) error {
	for i, entry := range selection.Achievements {
		if entry.Title == "" {
			return fmt.Errorf("%w: entry %d has no title", ErrInvalidSelection, i)
		}
		if entry.IsCustom {
			if entry.CatalogID != nil || entry.RelevanceScore != nil {
				return fmt.Errorf("%w: custom entry %d must not carry catalog data", ErrInvalidSelection, i)
			}
			continue
		}
		if entry.CatalogID == nil || *entry.CatalogID == "" {
			return fmt.Errorf("%w: entry %d has no catalog reference", ErrInvalidSelection, i)
		}
	}
	return nil
}

// PerformanceBand buckets a term average the way report cards print it.
func PerformanceBand(average float64) string {
	switch {
	case average >= 85:
		return "Outstanding"
	case average >= 70:
		return "Good"
	case average >= 55:
		return "Satisfactory"
	default:
		return "Needs Improvement"
	}
}

func averageScore(rows []model.GradeRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range rows {
		sum += row.Score
	}
	return sum / float64(len(rows))
}
