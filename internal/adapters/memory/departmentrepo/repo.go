package departmentrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/departmentrepo"
)

// Repo is an in-memory implementation of departmentrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	depts    map[domain.DepartmentID]domain.Department
	idBySlug map[string]domain.DepartmentID
	courses  map[domain.CourseID]domain.Course
}

func NewRepo() *Repo {
	return &Repo{
		depts:    make(map[domain.DepartmentID]domain.Department),
		idBySlug: make(map[string]domain.DepartmentID),
		courses:  make(map[domain.CourseID]domain.Course),
	}
}

func (r *Repo) CreateDepartment(ctx context.Context, d domain.Department) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.depts[d.ID]; ok {
		return departmentrepo.ErrAlreadyExists
	}
	if _, ok := r.idBySlug[d.Slug]; ok {
		return departmentrepo.ErrAlreadyExists
	}
	for _, existing := range r.depts {
		if strings.EqualFold(existing.Name, d.Name) {
			return departmentrepo.ErrAlreadyExists
		}
	}
	r.depts[d.ID] = cloneDept(d)
	r.idBySlug[d.Slug] = d.ID
	return nil
}

func (r *Repo) UpdateDepartment(ctx context.Context, d domain.Department) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.depts[d.ID]
	if !ok {
		return departmentrepo.ErrNotFound
	}
	if existing.Slug != d.Slug {
		if _, taken := r.idBySlug[d.Slug]; taken {
			return departmentrepo.ErrAlreadyExists
		}
		delete(r.idBySlug, existing.Slug)
		r.idBySlug[d.Slug] = d.ID
	}
	r.depts[d.ID] = cloneDept(d)
	return nil
}

func (r *Repo) GetDepartment(ctx context.Context, id domain.DepartmentID) (domain.Department, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.depts[id]
	if !ok {
		return domain.Department{}, departmentrepo.ErrNotFound
	}
	return cloneDept(d), nil
}

func (r *Repo) GetDepartmentBySlug(ctx context.Context, slug string) (domain.Department, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idBySlug[slug]
	if !ok {
		return domain.Department{}, departmentrepo.ErrNotFound
	}
	return cloneDept(r.depts[id]), nil
}

func (r *Repo) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Department, 0, len(r.depts))
	for _, d := range r.depts {
		out = append(out, cloneDept(d))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (r *Repo) CreateCourse(ctx context.Context, c domain.Course) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[c.ID]; ok {
		return departmentrepo.ErrAlreadyExists
	}
	for _, existing := range r.courses {
		if strings.EqualFold(existing.Name, c.Name) {
			return departmentrepo.ErrAlreadyExists
		}
	}
	r.courses[c.ID] = c
	return nil
}

func (r *Repo) GetCourse(ctx context.Context, id domain.CourseID) (domain.Course, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.courses[id]
	if !ok {
		return domain.Course{}, departmentrepo.ErrCourseNotFound
	}
	return c, nil
}

func (r *Repo) ListCourses(ctx context.Context) ([]domain.Course, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func cloneDept(d domain.Department) domain.Department {
	out := d
	if d.LeaderID != nil {
		v := *d.LeaderID
		out.LeaderID = &v
	}
	return out
}
