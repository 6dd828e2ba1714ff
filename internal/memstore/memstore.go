// Package memstore is an in-memory implementation of the storage
// interfaces the engine consumes. Tests run the full stack against it
// without Postgres or Redis; ordering semantics mirror the SQL store.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

// ErrUnavailable simulates a storage outage when FailReads is set.
var ErrUnavailable = errors.New("memstore: storage unavailable")

type Store struct {
	mu          sync.RWMutex
	Users       map[string]model.User
	Classes     map[string]model.Class
	Students    map[string]model.Student
	Terms       map[string]model.Term
	Subjects    []model.Subject
	Assignments map[string][]string // teacher id -> assigned class ids
	Grades      []model.Grade

	// FailReads makes every read fail, for upstream-outage tests.
	FailReads bool
}

func New() *Store {
	return &Store{
		Users:       map[string]model.User{},
		Classes:     map[string]model.Class{},
		Students:    map[string]model.Student{},
		Terms:       map[string]model.Term{},
		Assignments: map[string][]string{},
	}
}

// Tenant directory reads (authz.Directory).

func (s *Store) StudentExists(_ context.Context, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return false, ErrUnavailable
	}
	_, ok := s.Students[studentID]
	return ok, nil
}

func (s *Store) StudentInSchool(_ context.Context, studentID, schoolID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return false, ErrUnavailable
	}
	student, ok := s.Students[studentID]
	return ok && student.SchoolID == schoolID, nil
}

func (s *Store) StudentAssignedTo(_ context.Context, studentID, teacherID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return false, ErrUnavailable
	}
	student, ok := s.Students[studentID]
	if !ok {
		return false, nil
	}
	for _, classID := range s.Assignments[teacherID] {
		if classID == student.ClassID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListAllStudents(_ context.Context) ([]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrUnavailable
	}
	return s.collectStudents(func(model.Student) bool { return true }), nil
}

func (s *Store) ListStudentsBySchool(_ context.Context, schoolID string) ([]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrUnavailable
	}
	return s.collectStudents(func(st model.Student) bool { return st.SchoolID == schoolID }), nil
}

func (s *Store) ListStudentsAssignedTo(_ context.Context, teacherID string) ([]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrUnavailable
	}
	assigned := map[string]bool{}
	for _, classID := range s.Assignments[teacherID] {
		assigned[classID] = true
	}
	return s.collectStudents(func(st model.Student) bool { return assigned[st.ClassID] }), nil
}

// Roster reads.

func (s *Store) GetStudent(_ context.Context, studentID string) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return model.Student{}, ErrUnavailable
	}
	student, ok := s.Students[studentID]
	if !ok {
		return model.Student{}, pgx.ErrNoRows
	}
	return student, nil
}

func (s *Store) GetClass(_ context.Context, classID string) (model.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return model.Class{}, ErrUnavailable
	}
	class, ok := s.Classes[classID]
	if !ok {
		return model.Class{}, pgx.ErrNoRows
	}
	return class, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return model.User{}, ErrUnavailable
	}
	for _, user := range s.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, pgx.ErrNoRows
}

func (s *Store) GetUserByID(_ context.Context, userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return model.User{}, ErrUnavailable
	}
	user, ok := s.Users[userID]
	if !ok {
		return model.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (s *Store) ListTermsBySchool(_ context.Context, schoolID string) ([]model.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrUnavailable
	}
	var terms []model.Term
	for _, term := range s.Terms {
		if term.SchoolID == schoolID {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].AcademicYear != terms[j].AcademicYear {
			return terms[i].AcademicYear < terms[j].AcademicYear
		}
		return terms[i].Number < terms[j].Number
	})
	return terms, nil
}

func (s *Store) ListSubjects(_ context.Context) ([]model.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrUnavailable
	}
	subjects := make([]model.Subject, len(s.Subjects))
	copy(subjects, s.Subjects)
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Code < subjects[j].Code })
	return subjects, nil
}

// Grade reads and writes (grades.Store).

func (s *Store) TermForStudent(_ context.Context, studentID, termID string) (model.Term, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return model.Term{}, false, ErrUnavailable
	}
	student, ok := s.Students[studentID]
	if !ok {
		return model.Term{}, false, nil
	}
	term, ok := s.Terms[termID]
	if !ok || term.SchoolID != student.SchoolID {
		return model.Term{}, false, nil
	}
	return term, true, nil
}

func (s *Store) TermGrades(_ context.Context, studentID, termID string) ([]model.GradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrUnavailable
	}
	return s.collectGradeRows(func(g model.Grade) bool {
		return g.StudentID == studentID && g.TermID == termID
	}), nil
}

func (s *Store) GradeHistory(_ context.Context, studentID string) ([]model.GradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrUnavailable
	}
	return s.collectGradeRows(func(g model.Grade) bool { return g.StudentID == studentID }), nil
}

func (s *Store) UpsertGrade(_ context.Context, grade model.Grade, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Grades {
		existing := &s.Grades[i]
		if existing.StudentID == grade.StudentID && existing.SubjectID == grade.SubjectID && existing.TermID == grade.TermID {
			existing.Score = grade.Score
			return nil
		}
	}
	s.Grades = append(s.Grades, grade)
	return nil
}

func (s *Store) collectStudents(keep func(model.Student) bool) []model.Student {
	var students []model.Student
	for _, student := range s.Students {
		if keep(student) {
			students = append(students, student)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].FullName != students[j].FullName {
			return students[i].FullName < students[j].FullName
		}
		return students[i].ID < students[j].ID
	})
	return students
}

func (s *Store) collectGradeRows(keep func(model.Grade) bool) []model.GradeRow {
	subjectsByID := map[string]model.Subject{}
	for _, subject := range s.Subjects {
		subjectsByID[subject.ID] = subject
	}
	var rows []model.GradeRow
	for _, grade := range s.Grades {
		if !keep(grade) {
			continue
		}
		term := s.Terms[grade.TermID]
		subject := subjectsByID[grade.SubjectID]
		rows = append(rows, model.GradeRow{
			TermID:       term.ID,
			TermName:     term.Name,
			AcademicYear: term.AcademicYear,
			TermNumber:   term.Number,
			SubjectID:    subject.ID,
			SubjectCode:  subject.Code,
			SubjectName:  subject.Name,
			Score:        grade.Score,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AcademicYear != rows[j].AcademicYear {
			return rows[i].AcademicYear < rows[j].AcademicYear
		}
		if rows[i].TermNumber != rows[j].TermNumber {
			return rows[i].TermNumber < rows[j].TermNumber
		}
		return rows[i].SubjectCode < rows[j].SubjectCode
	})
	return rows
}
