package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

// Store is the single read/write path into Postgres. Every method is a
// plain query; scoping decisions live in the authz and grades packages,
// not here.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, school_id, email, password_hash, full_name, role, created_at
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(
		&user.ID,
		&user.SchoolID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.CreatedAt,
	)
	return user, err
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, school_id, email, password_hash, full_name, role, created_at
		FROM users
		WHERE id = $1
	`, userID)
	err := row.Scan(
		&user.ID,
		&user.SchoolID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.CreatedAt,
	)
	return user, err
}

// Tenant directory reads used by the authorization resolver.

func (s *Store) StudentExists(ctx context.Context, studentID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM students WHERE id = $1`, studentID)
}

func (s *Store) StudentInSchool(ctx context.Context, studentID, schoolID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM students WHERE id = $1 AND school_id = $2`, studentID, schoolID)
}

func (s *Store) StudentAssignedTo(ctx context.Context, studentID, teacherID string) (bool, error) {
	return s.exists(ctx, `
		SELECT 1
		FROM students st
		JOIN teacher_class_assignments tca ON tca.class_id = st.class_id
		WHERE st.id = $1 AND tca.teacher_id = $2
	`, studentID, teacherID)
}

func (s *Store) ListAllStudents(ctx context.Context) ([]model.Student, error) {
	return s.listStudents(ctx, `
		SELECT id, school_id, class_id, full_name
		FROM students
		ORDER BY full_name, id
	`)
}

func (s *Store) ListStudentsBySchool(ctx context.Context, schoolID string) ([]model.Student, error) {
	return s.listStudents(ctx, `
		SELECT id, school_id, class_id, full_name
		FROM students
		WHERE school_id = $1
		ORDER BY full_name, id
	`, schoolID)
}

func (s *Store) ListStudentsAssignedTo(ctx context.Context, teacherID string) ([]model.Student, error) {
	return s.listStudents(ctx, `
		SELECT st.id, st.school_id, st.class_id, st.full_name
		FROM students st
		JOIN teacher_class_assignments tca ON tca.class_id = st.class_id
		WHERE tca.teacher_id = $1
		ORDER BY st.full_name, st.id
	`, teacherID)
}

func (s *Store) GetStudent(ctx context.Context, studentID string) (model.Student, error) {
	var student model.Student
	row := s.pool.QueryRow(ctx, `
		SELECT id, school_id, class_id, full_name
		FROM students
		WHERE id = $1
	`, studentID)
	err := row.Scan(&student.ID, &student.SchoolID, &student.ClassID, &student.FullName)
	return student, err
}

func (s *Store) GetClass(ctx context.Context, classID string) (model.Class, error) {
	var class model.Class
	row := s.pool.QueryRow(ctx, `
		SELECT id, school_id, name
		FROM classes
		WHERE id = $1
	`, classID)
	err := row.Scan(&class.ID, &class.SchoolID, &class.Name)
	return class, err
}

func (s *Store) GetTerm(ctx context.Context, termID string) (model.Term, error) {
	var term model.Term
	row := s.pool.QueryRow(ctx, `
		SELECT id, school_id, name, academic_year, term_number
		FROM terms
		WHERE id = $1
	`, termID)
	err := row.Scan(&term.ID, &term.SchoolID, &term.Name, &term.AcademicYear, &term.Number)
	return term, err
}

// TermForStudent resolves a term only when it belongs to the student's
// school; a term from another tenant is reported as absent, not as an
// error.
func (s *Store) TermForStudent(ctx context.Context, studentID, termID string) (model.Term, bool, error) {
	var term model.Term
	row := s.pool.QueryRow(ctx, `
		SELECT t.id, t.school_id, t.name, t.academic_year, t.term_number
		FROM terms t
		JOIN students st ON st.school_id = t.school_id
		WHERE t.id = $1 AND st.id = $2
	`, termID, studentID)
	err := row.Scan(&term.ID, &term.SchoolID, &term.Name, &term.AcademicYear, &term.Number)
	if err != nil {
		if isNoRows(err) {
			return model.Term{}, false, nil
		}
		return model.Term{}, false, err
	}
	return term, true, nil
}

func (s *Store) ListTermsBySchool(ctx context.Context, schoolID string) ([]model.Term, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, school_id, name, academic_year, term_number
		FROM terms
		WHERE school_id = $1
		ORDER BY academic_year, term_number
	`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []model.Term
	for rows.Next() {
		var term model.Term
		if err := rows.Scan(&term.ID, &term.SchoolID, &term.Name, &term.AcademicYear, &term.Number); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

func (s *Store) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name
		FROM subjects
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var subject model.Subject
		if err := rows.Scan(&subject.ID, &subject.Code, &subject.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

// Grade reads. Ordering by (academic_year, term_number, subject_code) is
// part of the grade view contract; every consumer relies on it.

func (s *Store) TermGrades(ctx context.Context, studentID, termID string) ([]model.GradeRow, error) {
	return s.listGradeRows(ctx, `
		SELECT t.id, t.name, t.academic_year, t.term_number,
		       sub.id, sub.code, sub.name, g.score
		FROM grades g
		JOIN terms t ON t.id = g.term_id
		JOIN subjects sub ON sub.id = g.subject_id
		WHERE g.student_id = $1 AND g.term_id = $2
		ORDER BY t.academic_year, t.term_number, sub.code
	`, studentID, termID)
}

func (s *Store) GradeHistory(ctx context.Context, studentID string) ([]model.GradeRow, error) {
	return s.listGradeRows(ctx, `
		SELECT t.id, t.name, t.academic_year, t.term_number,
		       sub.id, sub.code, sub.name, g.score
		FROM grades g
		JOIN terms t ON t.id = g.term_id
		JOIN subjects sub ON sub.id = g.subject_id
		WHERE g.student_id = $1
		ORDER BY t.academic_year, t.term_number, sub.code
	`, studentID)
}

func (s *Store) UpsertGrade(ctx context.Context, grade model.Grade, modifiedBy string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO grades (student_id, subject_id, term_id, score, modified_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, subject_id, term_id)
		DO UPDATE SET score = EXCLUDED.score, modified_by = EXCLUDED.modified_by, updated_at = NOW()
	`, grade.StudentID, grade.SubjectID, grade.TermID, grade.Score, modifiedBy)
	return err
}

// ListCatalog returns the achievement catalog. Loaded once at startup and
// treated as immutable afterwards.
func (s *Store) ListCatalog(ctx context.Context) ([]model.CatalogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, category, kind, subject, min_value
		FROM achievement_catalog
		ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CatalogEntry
	for rows.Next() {
		var entry model.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Description, &entry.Category, &entry.Kind, &entry.Subject, &entry.MinValue); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) listStudents(ctx context.Context, query string, args ...interface{}) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var student model.Student
		if err := rows.Scan(&student.ID, &student.SchoolID, &student.ClassID, &student.FullName); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) listGradeRows(ctx context.Context, query string, args ...interface{}) ([]model.GradeRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.GradeRow
	for rows.Next() {
		var row model.GradeRow
		if err := rows.Scan(
			&row.TermID,
			&row.TermName,
			&row.AcademicYear,
			&row.TermNumber,
			&row.SubjectID,
			&row.SubjectCode,
			&row.SubjectName,
			&row.Score,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
