package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/departmentrepo"
)

// Service manages the department and course reference sets. Both are
// admin-curated; mutation requires a staff actor.
type Service struct {
	repo departmentrepo.Repository
	clk  clockport.Clock

	newID func() string
}

func NewService(repo departmentrepo.Repository, clk clockport.Clock) *Service {
	return &Service{repo: repo, clk: clk, newID: uuid.NewString}
}

type DepartmentInput struct {
	Name        string
	Slug        string
	Description string
	LeaderID    *domain.MemberID
}

func (s *Service) CreateDepartment(ctx context.Context, actor domain.Member, in DepartmentInput) (domain.Department, error) {
	if !actor.IsStaffLike() {
		return domain.Department{}, apperror.PermissionDenied("only staff can manage departments")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Department{}, apperror.Validation("invalid name", map[string]any{"name": "must be non-empty"})
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		return domain.Department{}, apperror.Validation("invalid slug", map[string]any{"slug": "must be non-empty"})
	}

	now := s.clk.Now()
	d := domain.Department{
		ID:          domain.DepartmentID(s.newID()),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		LeaderID:    in.LeaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateDepartment(ctx, d); err != nil {
		if errors.Is(err, departmentrepo.ErrAlreadyExists) {
			return domain.Department{}, apperror.Conflict("DEPARTMENT_EXISTS", "a department with this name or slug already exists")
		}
		return domain.Department{}, fmt.Errorf("create department: %w", err)
	}
	return d, nil
}

func (s *Service) GetDepartmentBySlug(ctx context.Context, slug string) (domain.Department, error) {
	d, err := s.repo.GetDepartmentBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, departmentrepo.ErrNotFound) {
			return domain.Department{}, apperror.NotFound("department not found")
		}
		return domain.Department{}, err
	}
	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.repo.ListDepartments(ctx)
}

type CourseInput struct {
	Name string
	Code string
}

func (s *Service) CreateCourse(ctx context.Context, actor domain.Member, in CourseInput) (domain.Course, error) {
	if !actor.IsStaffLike() {
		return domain.Course{}, apperror.PermissionDenied("only staff can manage courses")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Course{}, apperror.Validation("invalid name", map[string]any{"name": "must be non-empty"})
	}

	c := domain.Course{
		ID:   domain.CourseID(s.newID()),
		Name: name,
		Code: strings.TrimSpace(in.Code),
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		if errors.Is(err, departmentrepo.ErrAlreadyExists) {
			return domain.Course{}, apperror.Conflict("COURSE_EXISTS", "a course with this name already exists")
		}
		return domain.Course{}, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

func (s *Service) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.repo.ListCourses(ctx)
}
