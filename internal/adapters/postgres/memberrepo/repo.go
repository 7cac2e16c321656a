package memberrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
)

// Repo is a Postgres implementation of memberrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const memberColumns = `
	id, reg_number, email, full_name,
	department_id, course_id, course_other,
	approved, is_active,
	is_staff, is_katibu, is_katibu_assistant, is_department_leader,
	has_picture, picture_path, picture_uploaded_at,
	registered_at, approved_at, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, m memberrepo.Member) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO members (
			id, reg_number, email, full_name,
			department_id, course_id, course_other,
			approved, is_active,
			is_staff, is_katibu, is_katibu_assistant, is_department_leader,
			has_picture, picture_path, picture_uploaded_at,
			registered_at, approved_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		id,
		m.RegNumber,
		m.Email,
		m.FullName,
		string(m.DepartmentID),
		courseIDForDB(m.CourseID),
		m.CourseOther,
		m.Approved,
		m.IsActive,
		m.Staff,
		m.Katibu,
		m.KatibuAssistant,
		m.DepartmentLeader,
		m.HasPicture,
		m.PicturePath,
		timePtrUTC(m.PictureUploadedAt),
		m.RegisteredAt.UTC(),
		timePtrUTC(m.ApprovedAt),
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "members_reg_number_unique":
				return memberrepo.ErrRegNumberTaken
			case "members_email_unique":
				return memberrepo.ErrEmailTaken
			case "members_pkey":
				return memberrepo.ErrAlreadyExists
			default:
				return err
			}
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, m memberrepo.Member) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE members
		SET email = $2,
		    full_name = $3,
		    department_id = $4,
		    course_id = $5,
		    course_other = $6,
		    is_staff = $7,
		    is_katibu = $8,
		    is_katibu_assistant = $9,
		    is_department_leader = $10,
		    updated_at = $11
		WHERE id = $1
	`,
		id,
		m.Email,
		m.FullName,
		string(m.DepartmentID),
		courseIDForDB(m.CourseID),
		m.CourseOther,
		m.Staff,
		m.Katibu,
		m.KatibuAssistant,
		m.DepartmentLeader,
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "members_email_unique" {
			return memberrepo.ErrEmailTaken
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) ApplyApproval(ctx context.Context, id domain.MemberID, u memberrepo.ApprovalUpdate) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	mid, err := uuid.Parse(string(id))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE members
		SET approved = COALESCE($2, approved),
		    is_active = COALESCE($3, is_active),
		    approved_at = COALESCE($4, approved_at),
		    updated_at = $5
		WHERE id = $1
	`,
		mid,
		u.Approved,
		u.IsActive,
		timePtrUTC(u.ApprovedAt),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) SetPicture(ctx context.Context, id domain.MemberID, u memberrepo.PictureUpdate) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	mid, err := uuid.Parse(string(id))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE members
		SET has_picture = TRUE,
		    picture_path = $2,
		    picture_uploaded_at = $3,
		    updated_at = $4
		WHERE id = $1
	`,
		mid,
		u.PicturePath,
		u.PictureUploadedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	mid, err := uuid.Parse(string(id))
	if err != nil {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return r.getOne(ctx, `WHERE id = $1`, mid)
}

func (r *Repo) GetByRegNumber(ctx context.Context, regNumber string) (memberrepo.Member, error) {
	return r.getOne(ctx, `WHERE lower(reg_number) = lower($1)`, regNumber)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (memberrepo.Member, error) {
	return r.getOne(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (r *Repo) getOne(ctx context.Context, where string, arg any) (memberrepo.Member, error) {
	if r.pool == nil {
		return memberrepo.Member{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members `+where, arg)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return memberrepo.Member{}, memberrepo.ErrNotFound
		}
		return memberrepo.Member{}, err
	}
	return m, nil
}

func (r *Repo) List(ctx context.Context, includeInactive bool) ([]memberrepo.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members`
	if !includeInactive {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY registered_at DESC, id`
	return r.listQuery(ctx, q)
}

func (r *Repo) ListPending(ctx context.Context, dept *domain.DepartmentID) ([]memberrepo.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE is_active AND NOT approved`
	args := []any{}
	if dept != nil {
		q += ` AND department_id = $1`
		args = append(args, string(*dept))
	}
	q += ` ORDER BY registered_at DESC, id`
	return r.listQuery(ctx, q, args...)
}

func (r *Repo) ListPictureOverdue(ctx context.Context, now time.Time) ([]memberrepo.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members
		WHERE is_active AND approved AND NOT has_picture
		  AND registered_at + $1::interval < $2
		ORDER BY registered_at DESC, id`
	window := fmt.Sprintf("%d seconds", int64(domain.PictureUploadWindow.Seconds()))
	return r.listQuery(ctx, q, window, now.UTC())
}

func (r *Repo) listQuery(ctx context.Context, q string, args ...any) ([]memberrepo.Member, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]memberrepo.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) StaffEmails(ctx context.Context) ([]string, error) {
	return r.emailQuery(ctx, `
		SELECT DISTINCT lower(email) FROM members
		WHERE is_staff AND email <> ''
		ORDER BY lower(email)`)
}

func (r *Repo) ApprovedMemberEmails(ctx context.Context) ([]string, error) {
	return r.emailQuery(ctx, `
		SELECT DISTINCT lower(email) FROM members
		WHERE is_active AND approved AND email <> ''
		ORDER BY lower(email)`)
}

func (r *Repo) emailQuery(ctx context.Context, q string) ([]string, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func scanMember(row pgx.Row) (memberrepo.Member, error) {
	var (
		m          memberrepo.Member
		id         uuid.UUID
		deptID     string
		courseID   *string
		pictureAt  *time.Time
		approvedAt *time.Time
	)
	err := row.Scan(
		&id, &m.RegNumber, &m.Email, &m.FullName,
		&deptID, &courseID, &m.CourseOther,
		&m.Approved, &m.IsActive,
		&m.Staff, &m.Katibu, &m.KatibuAssistant, &m.DepartmentLeader,
		&m.HasPicture, &m.PicturePath, &pictureAt,
		&m.RegisteredAt, &approvedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return memberrepo.Member{}, err
	}
	m.ID = domain.MemberID(id.String())
	m.DepartmentID = domain.DepartmentID(deptID)
	if courseID != nil {
		cid := domain.CourseID(*courseID)
		m.CourseID = &cid
	}
	m.PictureUploadedAt = pictureAt
	m.ApprovedAt = approvedAt
	return m, nil
}

func courseIDForDB(id *domain.CourseID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func timePtrUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
