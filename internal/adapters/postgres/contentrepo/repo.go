package contentrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/contentrepo"
)

// Repo is a Postgres implementation of contentrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) CreateProject(ctx context.Context, p domain.Project) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (
			id, title, description, slug, github_url, live_url,
			department_id, created_by, featured, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		string(p.ID),
		p.Title,
		p.Description,
		p.Slug,
		p.GitHubURL,
		p.LiveURL,
		deptForDB(p.DepartmentID),
		memberForDB(p.CreatedBy),
		p.Featured,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "projects_slug_unique" {
			return contentrepo.ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *Repo) GetProjectBySlug(ctx context.Context, slug string) (domain.Project, error) {
	if r.pool == nil {
		return domain.Project{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, description, slug, github_url, live_url,
		       department_id, created_by, featured, created_at, updated_at
		FROM projects WHERE slug = $1`, slug)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, contentrepo.ErrNotFound
		}
		return domain.Project{}, err
	}
	return p, nil
}

func (r *Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, slug, github_url, live_url,
		       department_id, created_by, featured, created_at, updated_at
		FROM projects
		ORDER BY featured DESC, created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateEvent(ctx context.Context, e domain.Event) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (
			id, title, description, event_date, location,
			department_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		string(e.ID),
		e.Title,
		e.Description,
		e.EventDate.UTC(),
		e.Location,
		deptForDB(e.DepartmentID),
		e.CreatedAt.UTC(),
		e.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return r.eventQuery(ctx, `
		SELECT id, title, description, event_date, location, department_id, created_at, updated_at
		FROM events
		ORDER BY event_date DESC, id`)
}

func (r *Repo) ListUpcomingEvents(ctx context.Context, now time.Time) ([]domain.Event, error) {
	return r.eventQuery(ctx, `
		SELECT id, title, description, event_date, location, department_id, created_at, updated_at
		FROM events
		WHERE event_date >= $1
		ORDER BY event_date, id`, now.UTC())
}

func (r *Repo) eventQuery(ctx context.Context, q string, args ...any) ([]domain.Event, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		var (
			e      domain.Event
			id     string
			deptID *string
		)
		if err := rows.Scan(&id, &e.Title, &e.Description, &e.EventDate, &e.Location, &deptID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.ID = domain.EventID(id)
		e.DepartmentID = deptFromDB(deptID)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) CreateAnnouncement(ctx context.Context, a domain.Announcement) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO announcements (
			id, title, content, type, department_id, created_by,
			published, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		string(a.ID),
		a.Title,
		a.Content,
		string(a.Type),
		deptForDB(a.DepartmentID),
		memberForDB(a.CreatedBy),
		a.Published,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repo) UpdateAnnouncement(ctx context.Context, a domain.Announcement) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE announcements
		SET title = $2, content = $3, type = $4, department_id = $5,
		    published = $6, updated_at = $7
		WHERE id = $1
	`,
		string(a.ID),
		a.Title,
		a.Content,
		string(a.Type),
		deptForDB(a.DepartmentID),
		a.Published,
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return contentrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetAnnouncement(ctx context.Context, id domain.AnnouncementID) (domain.Announcement, error) {
	if r.pool == nil {
		return domain.Announcement{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, content, type, department_id, created_by, published, created_at, updated_at
		FROM announcements WHERE id = $1`, string(id))
	a, err := scanAnnouncement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Announcement{}, contentrepo.ErrNotFound
		}
		return domain.Announcement{}, err
	}
	return a, nil
}

func (r *Repo) ListAnnouncements(ctx context.Context, publishedOnly bool) ([]domain.Announcement, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	q := `
		SELECT id, title, content, type, department_id, created_by, published, created_at, updated_at
		FROM announcements`
	if publishedOnly {
		q += ` WHERE published`
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) CreateContactMessage(ctx context.Context, m domain.ContactMessage) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contact_messages (
			id, name, email, phone, subject, message, responded, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		string(m.ID),
		m.Name,
		m.Email,
		m.Phone,
		m.Subject,
		m.Message,
		m.Responded,
		m.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) ListContactMessages(ctx context.Context, unrespondedOnly bool) ([]domain.ContactMessage, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	q := `
		SELECT id, name, email, phone, subject, message, responded, created_at
		FROM contact_messages`
	if unrespondedOnly {
		q += ` WHERE NOT responded`
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ContactMessage, 0)
	for rows.Next() {
		var (
			m  domain.ContactMessage
			id string
		)
		if err := rows.Scan(&id, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.Responded, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ID = domain.ContactMessageID(id)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) MarkContactResponded(ctx context.Context, id domain.ContactMessageID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `UPDATE contact_messages SET responded = TRUE WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return contentrepo.ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var (
		p         domain.Project
		id        string
		deptID    *string
		createdBy *string
	)
	err := row.Scan(&id, &p.Title, &p.Description, &p.Slug, &p.GitHubURL, &p.LiveURL,
		&deptID, &createdBy, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Project{}, err
	}
	p.ID = domain.ProjectID(id)
	p.DepartmentID = deptFromDB(deptID)
	p.CreatedBy = memberFromDB(createdBy)
	return p, nil
}

func scanAnnouncement(row pgx.Row) (domain.Announcement, error) {
	var (
		a         domain.Announcement
		id, typ   string
		deptID    *string
		createdBy *string
	)
	err := row.Scan(&id, &a.Title, &a.Content, &typ, &deptID, &createdBy, &a.Published, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Announcement{}, err
	}
	a.ID = domain.AnnouncementID(id)
	a.Type = domain.AnnouncementType(typ)
	a.DepartmentID = deptFromDB(deptID)
	a.CreatedBy = memberFromDB(createdBy)
	return a, nil
}

func deptForDB(id *domain.DepartmentID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func deptFromDB(s *string) *domain.DepartmentID {
	if s == nil {
		return nil
	}
	id := domain.DepartmentID(*s)
	return &id
}

func memberForDB(id *domain.MemberID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func memberFromDB(s *string) *domain.MemberID {
	if s == nil {
		return nil
	}
	id := domain.MemberID(*s)
	return &id
}
