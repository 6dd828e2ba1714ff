package model

import "time"

// Role is the closed set of staff roles. Visibility code switches over it
// exhaustively; an unknown value is a data-integrity failure, never a
// default.
type Role string

const (
	RoleFormTeacher Role = "form_teacher"
	RoleYearHead    Role = "year_head"
	RoleAdmin       Role = "admin"
)

type School struct {
	ID   string
	Name string
}

type User struct {
	ID           string
	SchoolID     string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	CreatedAt    time.Time
}

type Class struct {
	ID       string
	SchoolID string
	Name     string
}

type Student struct {
	ID       string
	SchoolID string
	ClassID  string
	FullName string
}

// Term orders by (AcademicYear, Number); Number is the ordinal within the
// year (1..4).
type Term struct {
	ID           string
	SchoolID     string
	Name         string
	AcademicYear int
	Number       int
}

type Subject struct {
	ID   string
	Code string
	Name string
}

// Grade holds one score per (student, subject, term); the uniqueness is
// enforced by the grades table constraint and trend deltas rely on it.
type Grade struct {
	ID        string
	StudentID string
	SubjectID string
	TermID    string
	Score     float64
}

// GradeRow is a grade joined with its term and subject, the shape the grade
// view returns. Ordered by (academic year, term number, subject code).
type GradeRow struct {
	TermID       string  `json:"termId"`
	TermName     string  `json:"termName"`
	AcademicYear int     `json:"academicYear"`
	TermNumber   int     `json:"termNumber"`
	SubjectID    string  `json:"subjectId"`
	SubjectCode  string  `json:"subjectCode"`
	SubjectName  string  `json:"subjectName"`
	Score        float64 `json:"score"`
}

// CatalogEntry is a static achievement template. Exactly one of the
// threshold fields drives its predicate depending on Kind.
type CatalogEntry struct {
	ID          string
	Title       string
	Description string
	Category    string
	Kind        string
	Subject     string
	MinValue    float64
}

// Suggestion is ephemeral: computed per request, never persisted. A custom
// entry authored by a teacher carries no catalog ID and no score; the
// matcher never emits one.
type Suggestion struct {
	CatalogID      *string  `json:"catalogId"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	RelevanceScore *float64 `json:"relevanceScore"`
	Justification  string   `json:"justification"`
	IsCustom       bool     `json:"isCustom"`
}
