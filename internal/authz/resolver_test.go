package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shiyun-ho/report-card-sub001/internal/authz"
	"github.com/shiyun-ho/report-card-sub001/internal/memstore"
	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

const (
	schoolA = "school-a"
	schoolB = "school-b"

	classA1 = "class-a1"
	classA2 = "class-a2"
	classB1 = "class-b1"

	formTeacherA = "teacher-a"
	yearHeadA    = "head-a"
	adminUser    = "admin-1"

	studentA1 = "student-a1" // class A1, school A
	studentA2 = "student-a2" // class A2, school A
	studentB1 = "student-b1" // class B1, school B
)

func fixture() *memstore.Store {
	store := memstore.New()
	store.Classes[classA1] = model.Class{ID: classA1, SchoolID: schoolA, Name: "4A"}
	store.Classes[classA2] = model.Class{ID: classA2, SchoolID: schoolA, Name: "4B"}
	store.Classes[classB1] = model.Class{ID: classB1, SchoolID: schoolB, Name: "4A"}
	store.Students[studentA1] = model.Student{ID: studentA1, SchoolID: schoolA, ClassID: classA1, FullName: "Aaron"}
	store.Students[studentA2] = model.Student{ID: studentA2, SchoolID: schoolA, ClassID: classA2, FullName: "Beth"}
	store.Students[studentB1] = model.Student{ID: studentB1, SchoolID: schoolB, ClassID: classB1, FullName: "Carol"}
	store.Assignments[formTeacherA] = []string{classA1}
	return store
}

func caller(id string, role model.Role, schoolID string) model.User {
	return model.User{ID: id, Role: role, SchoolID: schoolID}
}

func TestVisibleStudentsPerRole(t *testing.T) {
	resolver := authz.NewResolver(fixture())
	ctx := context.Background()

	cases := []struct {
		name   string
		caller model.User
		expect []string
	}{
		{"form teacher sees assigned class only", caller(formTeacherA, model.RoleFormTeacher, schoolA), []string{studentA1}},
		{"year head sees whole school", caller(yearHeadA, model.RoleYearHead, schoolA), []string{studentA1, studentA2}},
		{"admin sees every school", caller(adminUser, model.RoleAdmin, schoolA), []string{studentA1, studentA2, studentB1}},
	}
	for _, tc := range cases {
		students, err := resolver.VisibleStudents(ctx, tc.caller)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if len(students) != len(tc.expect) {
			t.Fatalf("%s: expected %d students, got %d", tc.name, len(tc.expect), len(students))
		}
		seen := map[string]bool{}
		for _, student := range students {
			seen[student.ID] = true
		}
		for _, id := range tc.expect {
			if !seen[id] {
				t.Fatalf("%s: expected %s to be visible", tc.name, id)
			}
		}
	}
}

func TestAssertCanAccessScopes(t *testing.T) {
	resolver := authz.NewResolver(fixture())
	ctx := context.Background()

	formTeacher := caller(formTeacherA, model.RoleFormTeacher, schoolA)
	yearHead := caller(yearHeadA, model.RoleYearHead, schoolA)
	admin := caller(adminUser, model.RoleAdmin, schoolA)

	if err := resolver.AssertCanAccess(ctx, formTeacher, studentA1); err != nil {
		t.Fatalf("form teacher must access assigned student: %v", err)
	}
	// Same school, unassigned class: denied.
	if err := resolver.AssertCanAccess(ctx, formTeacher, studentA2); !errors.Is(err, authz.ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound for unassigned class, got %v", err)
	}
	if err := resolver.AssertCanAccess(ctx, yearHead, studentA2); err != nil {
		t.Fatalf("year head must access any student in school: %v", err)
	}
	if err := resolver.AssertCanAccess(ctx, yearHead, studentB1); !errors.Is(err, authz.ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound across schools, got %v", err)
	}
	if err := resolver.AssertCanAccess(ctx, admin, studentB1); err != nil {
		t.Fatalf("admin must access any student: %v", err)
	}
}

func TestOutOfScopeIndistinguishableFromNonexistent(t *testing.T) {
	resolver := authz.NewResolver(fixture())
	ctx := context.Background()
	yearHead := caller(yearHeadA, model.RoleYearHead, schoolA)

	crossTenant := resolver.AssertCanAccess(ctx, yearHead, studentB1)
	nonexistent := resolver.AssertCanAccess(ctx, yearHead, "no-such-student")
	if !errors.Is(crossTenant, authz.ErrStudentNotFound) || !errors.Is(nonexistent, authz.ErrStudentNotFound) {
		t.Fatalf("both cases must be ErrStudentNotFound, got %v and %v", crossTenant, nonexistent)
	}
	if crossTenant.Error() != nonexistent.Error() {
		t.Fatalf("error messages must be identical: %q vs %q", crossTenant.Error(), nonexistent.Error())
	}
}

func TestUnrecognizedRoleIsFatal(t *testing.T) {
	resolver := authz.NewResolver(fixture())
	ctx := context.Background()
	intruder := caller("weird", model.Role("principal"), schoolA)

	if _, err := resolver.VisibleStudents(ctx, intruder); !errors.Is(err, authz.ErrUnrecognizedRole) {
		t.Fatalf("expected ErrUnrecognizedRole from VisibleStudents, got %v", err)
	}
	if err := resolver.AssertCanAccess(ctx, intruder, studentA1); !errors.Is(err, authz.ErrUnrecognizedRole) {
		t.Fatalf("expected ErrUnrecognizedRole from AssertCanAccess, got %v", err)
	}
}

func TestDirectoryOutageSurfacesAsUpstreamError(t *testing.T) {
	store := fixture()
	store.FailReads = true
	resolver := authz.NewResolver(store)
	ctx := context.Background()

	if err := resolver.AssertCanAccess(ctx, caller(adminUser, model.RoleAdmin, schoolA), studentA1); !errors.Is(err, authz.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if _, err := resolver.VisibleStudents(ctx, caller(yearHeadA, model.RoleYearHead, schoolA)); !errors.Is(err, authz.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
