package memberrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.MemberID]memberrepo.Member
	idByReg   map[string]domain.MemberID
	idByEmail map[string]domain.MemberID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.MemberID]memberrepo.Member),
		idByReg:   make(map[string]domain.MemberID),
		idByEmail: make(map[string]domain.MemberID),
	}
}

func (r *Repo) Create(ctx context.Context, m memberrepo.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.ID]; ok {
		return memberrepo.ErrAlreadyExists
	}
	if _, ok := r.idByReg[normKey(m.RegNumber)]; ok {
		return memberrepo.ErrRegNumberTaken
	}
	if _, ok := r.idByEmail[normKey(m.Email)]; ok {
		return memberrepo.ErrEmailTaken
	}

	r.byID[m.ID] = cloneMember(m)
	r.idByReg[normKey(m.RegNumber)] = m.ID
	r.idByEmail[normKey(m.Email)] = m.ID
	return nil
}

func (r *Repo) Update(ctx context.Context, m memberrepo.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[m.ID]
	if !ok {
		return memberrepo.ErrNotFound
	}
	// Registration number binding is immutable.
	if existing.RegNumber != m.RegNumber {
		return memberrepo.ErrRegNumberTaken
	}
	if !strings.EqualFold(existing.Email, m.Email) {
		if _, taken := r.idByEmail[normKey(m.Email)]; taken {
			return memberrepo.ErrEmailTaken
		}
		delete(r.idByEmail, normKey(existing.Email))
		r.idByEmail[normKey(m.Email)] = m.ID
	}

	r.byID[m.ID] = cloneMember(m)
	return nil
}

func (r *Repo) ApplyApproval(ctx context.Context, id domain.MemberID, u memberrepo.ApprovalUpdate) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return memberrepo.ErrNotFound
	}
	if u.Approved != nil {
		m.Approved = *u.Approved
	}
	if u.IsActive != nil {
		m.IsActive = *u.IsActive
	}
	if u.ApprovedAt != nil {
		v := *u.ApprovedAt
		m.ApprovedAt = &v
	}
	m.UpdatedAt = u.UpdatedAt
	r.byID[id] = m
	return nil
}

func (r *Repo) SetPicture(ctx context.Context, id domain.MemberID, u memberrepo.PictureUpdate) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return memberrepo.ErrNotFound
	}
	m.HasPicture = true
	m.PicturePath = u.PicturePath
	t := u.PictureUploadedAt
	m.PictureUploadedAt = &t
	m.UpdatedAt = u.UpdatedAt
	r.byID[id] = m
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *Repo) GetByRegNumber(ctx context.Context, regNumber string) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByReg[normKey(regNumber)]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(r.byID[id]), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[normKey(email)]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(r.byID[id]), nil
}

func (r *Repo) List(ctx context.Context, includeInactive bool) ([]memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]memberrepo.Member, 0, len(r.byID))
	for _, m := range r.byID {
		if !includeInactive && !m.IsActive {
			continue
		}
		out = append(out, cloneMember(m))
	}
	sortByRegisteredAtDesc(out)
	return out, nil
}

func (r *Repo) ListPending(ctx context.Context, dept *domain.DepartmentID) ([]memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]memberrepo.Member, 0)
	for _, m := range r.byID {
		if !m.IsActive || m.Approved {
			continue
		}
		if dept != nil && m.DepartmentID != *dept {
			continue
		}
		out = append(out, cloneMember(m))
	}
	sortByRegisteredAtDesc(out)
	return out, nil
}

func (r *Repo) ListPictureOverdue(ctx context.Context, now time.Time) ([]memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]memberrepo.Member, 0)
	for _, m := range r.byID {
		if !m.IsActive || !m.Approved || m.HasPicture {
			continue
		}
		if m.RegisteredAt.IsZero() {
			continue
		}
		if now.After(m.RegisteredAt.Add(domain.PictureUploadWindow)) {
			out = append(out, cloneMember(m))
		}
	}
	sortByRegisteredAtDesc(out)
	return out, nil
}

func (r *Repo) StaffEmails(ctx context.Context) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	return collectEmails(r.byID, func(m memberrepo.Member) bool {
		return m.Staff
	}), nil
}

func (r *Repo) ApprovedMemberEmails(ctx context.Context) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	return collectEmails(r.byID, func(m memberrepo.Member) bool {
		return m.IsActive && m.Approved
	}), nil
}

func collectEmails(byID map[domain.MemberID]memberrepo.Member, keep func(memberrepo.Member) bool) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, m := range byID {
		if !keep(m) || strings.TrimSpace(m.Email) == "" {
			continue
		}
		key := normKey(m.Email)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m.Email)
	}
	sort.Strings(out)
	return out
}

func cloneMember(m memberrepo.Member) memberrepo.Member {
	out := m
	if m.CourseID != nil {
		v := *m.CourseID
		out.CourseID = &v
	}
	if m.PictureUploadedAt != nil {
		v := *m.PictureUploadedAt
		out.PictureUploadedAt = &v
	}
	if m.ApprovedAt != nil {
		v := *m.ApprovedAt
		out.ApprovedAt = &v
	}
	return out
}

func sortByRegisteredAtDesc(ms []memberrepo.Member) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].RegisteredAt.Equal(ms[j].RegisteredAt) {
			return ms[i].ID < ms[j].ID
		}
		return ms[i].RegisteredAt.After(ms[j].RegisteredAt)
	})
}

func normKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
