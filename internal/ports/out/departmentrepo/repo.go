package departmentrepo

import (
	"context"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

// Repository provides access to persisted departments and courses.
//
// Departments and courses are small, admin-curated reference sets; both list
// methods return results ordered by name ascending.
type Repository interface {
	CreateDepartment(ctx context.Context, d domain.Department) error
	UpdateDepartment(ctx context.Context, d domain.Department) error
	GetDepartment(ctx context.Context, id domain.DepartmentID) (domain.Department, error)
	GetDepartmentBySlug(ctx context.Context, slug string) (domain.Department, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)

	CreateCourse(ctx context.Context, c domain.Course) error
	GetCourse(ctx context.Context, id domain.CourseID) (domain.Course, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
}
