// Package authz computes which students a caller may act upon. Every grade
// read and every trend computation goes through AssertCanAccess first, so
// no analysis ever touches data outside the caller's scope.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

var (
	// ErrStudentNotFound covers both a student id that does not exist and
	// one that exists outside the caller's scope. The two cases share this
	// one value on purpose: a caller must not be able to tell them apart.
	ErrStudentNotFound = errors.New("student not found")

	// ErrAccessDenied means the caller's role may not use this surface at
	// all, independent of any particular student.
	ErrAccessDenied = errors.New("access denied")

	// ErrUnrecognizedRole indicates a role value outside the closed set.
	// It is a data-integrity failure and is never downgraded to "no
	// access".
	ErrUnrecognizedRole = errors.New("unrecognized role")

	// ErrUpstreamUnavailable wraps storage read failures. Not retried
	// here; grade data is read-only so a retry changes nothing.
	ErrUpstreamUnavailable = errors.New("upstream storage unavailable")
)

// Directory is the tenant relationship table: who belongs to which school,
// which classes a teacher is assigned to, which class a student sits in.
type Directory interface {
	StudentExists(ctx context.Context, studentID string) (bool, error)
	StudentInSchool(ctx context.Context, studentID, schoolID string) (bool, error)
	StudentAssignedTo(ctx context.Context, studentID, teacherID string) (bool, error)
	ListAllStudents(ctx context.Context) ([]model.Student, error)
	ListStudentsBySchool(ctx context.Context, schoolID string) ([]model.Student, error)
	ListStudentsAssignedTo(ctx context.Context, teacherID string) ([]model.Student, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// VisibleStudents returns every student the caller may act upon. Resolved
// fresh on each call; assignments can change between requests and a stale
// cache would be a tenant-isolation hole.
func (r *Resolver) VisibleStudents(ctx context.Context, caller model.User) ([]model.Student, error) {
	var (
		students []model.Student
		err      error
	)
	switch caller.Role {
	case model.RoleAdmin:
		students, err = r.dir.ListAllStudents(ctx)
	case model.RoleYearHead:
		students, err = r.dir.ListStudentsBySchool(ctx, caller.SchoolID)
	case model.RoleFormTeacher:
		students, err = r.dir.ListStudentsAssignedTo(ctx, caller.ID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedRole, caller.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return students, nil
}

// AssertCanAccess checks scope with a single scoped-existence query per
// role, so an out-of-scope student and a nonexistent one are rejected by
// the same path with the same error.
func (r *Resolver) AssertCanAccess(ctx context.Context, caller model.User, studentID string) error {
	var (
		ok  bool
		err error
	)
	switch caller.Role {
	case model.RoleAdmin:
		ok, err = r.dir.StudentExists(ctx, studentID)
	case model.RoleYearHead:
		ok, err = r.dir.StudentInSchool(ctx, studentID, caller.SchoolID)
	case model.RoleFormTeacher:
		ok, err = r.dir.StudentAssignedTo(ctx, studentID, caller.ID)
	default:
		return fmt.Errorf("%w: %q", ErrUnrecognizedRole, caller.Role)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if !ok {
		return ErrStudentNotFound
	}
	return nil
}
