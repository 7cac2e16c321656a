package departmentrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/departmentrepo"
)

// Repo is a Postgres implementation of departmentrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) CreateDepartment(ctx context.Context, d domain.Department) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO departments (id, name, slug, description, leader_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		string(d.ID),
		d.Name,
		d.Slug,
		d.Description,
		leaderForDB(d.LeaderID),
		d.CreatedAt.UTC(),
		d.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return departmentrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) UpdateDepartment(ctx context.Context, d domain.Department) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE departments
		SET name = $2, slug = $3, description = $4, leader_id = $5, updated_at = $6
		WHERE id = $1
	`,
		string(d.ID),
		d.Name,
		d.Slug,
		d.Description,
		leaderForDB(d.LeaderID),
		d.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return departmentrepo.ErrAlreadyExists
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return departmentrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetDepartment(ctx context.Context, id domain.DepartmentID) (domain.Department, error) {
	return r.getDepartment(ctx, `WHERE id = $1`, string(id))
}

func (r *Repo) GetDepartmentBySlug(ctx context.Context, slug string) (domain.Department, error) {
	return r.getDepartment(ctx, `WHERE slug = $1`, slug)
}

func (r *Repo) getDepartment(ctx context.Context, where string, arg any) (domain.Department, error) {
	if r.pool == nil {
		return domain.Department{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, slug, description, leader_id, created_at, updated_at
		FROM departments `+where, arg)
	d, err := scanDepartment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Department{}, departmentrepo.ErrNotFound
		}
		return domain.Department{}, err
	}
	return d, nil
}

func (r *Repo) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, description, leader_id, created_at, updated_at
		FROM departments
		ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCourse(ctx context.Context, c domain.Course) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courses (id, name, code) VALUES ($1,$2,$3)
	`, string(c.ID), c.Name, c.Code)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return departmentrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetCourse(ctx context.Context, id domain.CourseID) (domain.Course, error) {
	if r.pool == nil {
		return domain.Course{}, errors.New("nil postgres pool")
	}
	var c domain.Course
	var cid string
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, code FROM courses WHERE id = $1
	`, string(id)).Scan(&cid, &c.Name, &c.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Course{}, departmentrepo.ErrCourseNotFound
		}
		return domain.Course{}, err
	}
	c.ID = domain.CourseID(cid)
	return c, nil
}

func (r *Repo) ListCourses(ctx context.Context) ([]domain.Course, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, code FROM courses ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Course, 0)
	for rows.Next() {
		var c domain.Course
		var cid string
		if err := rows.Scan(&cid, &c.Name, &c.Code); err != nil {
			return nil, err
		}
		c.ID = domain.CourseID(cid)
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanDepartment(row pgx.Row) (domain.Department, error) {
	var (
		d        domain.Department
		id       string
		leaderID *string
	)
	if err := row.Scan(&id, &d.Name, &d.Slug, &d.Description, &leaderID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return domain.Department{}, err
	}
	d.ID = domain.DepartmentID(id)
	if leaderID != nil {
		mid := domain.MemberID(*leaderID)
		d.LeaderID = &mid
	}
	return d, nil
}

func leaderForDB(id *domain.MemberID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
