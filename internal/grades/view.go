// Package grades is the read (and scoped write) path over grade rows.
// Every call re-validates the caller's scope even when the caller already
// did; the view never trusts its caller to have checked.
package grades

import (
	"context"
	"errors"
	"fmt"

	"github.com/shiyun-ho/report-card-sub001/internal/authz"
	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

var (
	// ErrTermNotFound covers a term id that does not exist and one that
	// belongs to another school, indistinguishably.
	ErrTermNotFound = errors.New("term not found")

	ErrInvalidScore = errors.New("score out of range")
)

// Store is the storage read/write surface the view needs. All reads return
// rows ordered by (academic_year, term_number, subject_code).
type Store interface {
	TermGrades(ctx context.Context, studentID, termID string) ([]model.GradeRow, error)
	GradeHistory(ctx context.Context, studentID string) ([]model.GradeRow, error)
	TermForStudent(ctx context.Context, studentID, termID string) (model.Term, bool, error)
	UpsertGrade(ctx context.Context, grade model.Grade, modifiedBy string) error
}

type View struct {
	resolver *authz.Resolver
	store    Store
}

func NewView(resolver *authz.Resolver, store Store) *View {
	return &View{resolver: resolver, store: store}
}

// Grades returns the student's scores for one term. An empty slice is a
// normal state: no grades recorded yet.
func (v *View) Grades(ctx context.Context, caller model.User, studentID, termID string) ([]model.GradeRow, error) {
	if err := v.resolver.AssertCanAccess(ctx, caller, studentID); err != nil {
		return nil, err
	}
	if _, err := v.term(ctx, studentID, termID); err != nil {
		return nil, err
	}
	rows, err := v.store.TermGrades(ctx, studentID, termID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrUpstreamUnavailable, err)
	}
	return rows, nil
}

// History returns the student's full grade history in chronological order.
func (v *View) History(ctx context.Context, caller model.User, studentID string) ([]model.GradeRow, error) {
	if err := v.resolver.AssertCanAccess(ctx, caller, studentID); err != nil {
		return nil, err
	}
	rows, err := v.store.GradeHistory(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrUpstreamUnavailable, err)
	}
	return rows, nil
}

// HistoryThrough returns the history truncated to terms up to and
// including the given term, plus the resolved term itself.
func (v *View) HistoryThrough(ctx context.Context, caller model.User, studentID, termID string) ([]model.GradeRow, model.Term, error) {
	if err := v.resolver.AssertCanAccess(ctx, caller, studentID); err != nil {
		return nil, model.Term{}, err
	}
	term, err := v.term(ctx, studentID, termID)
	if err != nil {
		return nil, model.Term{}, err
	}
	rows, err := v.store.GradeHistory(ctx, studentID)
	if err != nil {
		return nil, model.Term{}, fmt.Errorf("%w: %v", authz.ErrUpstreamUnavailable, err)
	}
	var through []model.GradeRow
	for _, row := range rows {
		if row.AcademicYear > term.AcademicYear {
			continue
		}
		if row.AcademicYear == term.AcademicYear && row.TermNumber > term.Number {
			continue
		}
		through = append(through, row)
	}
	return through, term, nil
}

// Update upserts scores for one (student, term). Scores are keyed by
// subject id; each must be within [0,100]. Writes stay inside the
// caller's scope because access is asserted first.
func (v *View) Update(ctx context.Context, caller model.User, studentID, termID string, scores map[string]float64) error {
	if err := v.resolver.AssertCanAccess(ctx, caller, studentID); err != nil {
		return err
	}
	if _, err := v.term(ctx, studentID, termID); err != nil {
		return err
	}
	for subjectID, score := range scores {
		if score < 0 || score > 100 {
			return fmt.Errorf("%w: %.2f for subject %s", ErrInvalidScore, score, subjectID)
		}
	}
	for subjectID, score := range scores {
		grade := model.Grade{
			StudentID: studentID,
			SubjectID: subjectID,
			TermID:    termID,
			Score:     score,
		}
		if err := v.store.UpsertGrade(ctx, grade, caller.ID); err != nil {
			return fmt.Errorf("%w: %v", authz.ErrUpstreamUnavailable, err)
		}
	}
	return nil
}

func (v *View) term(ctx context.Context, studentID, termID string) (model.Term, error) {
	term, ok, err := v.store.TermForStudent(ctx, studentID, termID)
	if err != nil {
		return model.Term{}, fmt.Errorf("%w: %v", authz.ErrUpstreamUnavailable, err)
	}
	if !ok {
		return model.Term{}, ErrTermNotFound
	}
	return term, nil
}
