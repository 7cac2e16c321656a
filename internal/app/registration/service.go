package registration

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/departmentrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
)

var regNumberPattern = regexp.MustCompile(`^[A-Za-z0-9\-/]+$`)

// Notifier dispatches a lifecycle notification. Satisfied by
// *notify.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, kind notify.Kind, m domain.Member) (bool, error)
}

// Service handles member self-registration and profile maintenance. New
// members start pending (approved=false) and active; approval is a separate
// leadership action.
type Service struct {
	members     memberrepo.Repository
	departments departmentrepo.Repository
	clk         clockport.Clock
	notifier    Notifier
	log         *logrus.Logger

	newMemberID func() domain.MemberID
}

func NewService(members memberrepo.Repository, departments departmentrepo.Repository, clk clockport.Clock, notifier Notifier, log *logrus.Logger) *Service {
	return &Service{
		members:     members,
		departments: departments,
		clk:         clk,
		notifier:    notifier,
		log:         log,
		newMemberID: func() domain.MemberID {
			return domain.MemberID(uuid.NewString())
		},
	}
}

type RegisterInput struct {
	RegNumber    string
	Email        string
	FullName     string
	DepartmentID domain.DepartmentID
	CourseID     *domain.CourseID
	CourseOther  string
}

// RegisterResult reports the created member plus a soft warning when the
// registration notification could not be delivered.
type RegisterResult struct {
	Member        domain.Member
	NotifyWarning string
}

// Register creates a pending member record and sends the registration
// notification (member confirmation plus staff fan-out, best-effort).
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	regNumber := strings.TrimSpace(in.RegNumber)
	if regNumber == "" || !regNumberPattern.MatchString(regNumber) {
		return RegisterResult{}, apperror.Validation("invalid registration number", map[string]any{
			"regNumber": "must be non-empty and contain only letters, digits, '-' and '/'",
		})
	}
	fullName := domain.NormalizeHumanName(in.FullName)
	if fullName == "" {
		return RegisterResult{}, apperror.Validation("invalid full name", map[string]any{
			"fullName": "must be non-empty",
		})
	}
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return RegisterResult{}, apperror.Validation("invalid email", map[string]any{
			"email": err.Error(),
		})
	}

	if _, err := s.departments.GetDepartment(ctx, in.DepartmentID); err != nil {
		if errors.Is(err, departmentrepo.ErrNotFound) {
			return RegisterResult{}, apperror.Validation("unknown department", map[string]any{
				"departmentId": "department does not exist",
			})
		}
		return RegisterResult{}, err
	}
	if in.CourseID != nil {
		if _, err := s.departments.GetCourse(ctx, *in.CourseID); err != nil {
			if errors.Is(err, departmentrepo.ErrCourseNotFound) {
				return RegisterResult{}, apperror.Validation("unknown course", map[string]any{
					"courseId": "course does not exist",
				})
			}
			return RegisterResult{}, err
		}
	}

	now := s.clk.Now()
	rec := memberrepo.Member{
		ID:           s.newMemberID(),
		RegNumber:    regNumber,
		Email:        email,
		FullName:     fullName,
		DepartmentID: in.DepartmentID,
		CourseID:     in.CourseID,
		CourseOther:  strings.TrimSpace(in.CourseOther),
		Approved:     false,
		IsActive:     true,
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.members.Create(ctx, rec); err != nil {
		switch {
		case errors.Is(err, memberrepo.ErrRegNumberTaken):
			return RegisterResult{}, apperror.Conflict("REG_NUMBER_TAKEN", "registration number is already registered")
		case errors.Is(err, memberrepo.ErrEmailTaken):
			return RegisterResult{}, apperror.Conflict("EMAIL_TAKEN", "email address is already registered")
		}
		return RegisterResult{}, fmt.Errorf("create member: %w", err)
	}

	member := toDomain(rec)
	res := RegisterResult{Member: member}
	if sent, err := s.notifier.Notify(ctx, notify.KindRegistered, member); err != nil || !sent {
		res.NotifyWarning = "registration saved but the confirmation email was not delivered"
		s.log.WithError(err).WithField("member", member.ID).Warn("registration notification failed")
	}
	return res, nil
}

// GetMember returns a member by ID.
func (s *Service) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	rec, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, apperror.NotFound("member not found")
		}
		return domain.Member{}, err
	}
	return toDomain(rec), nil
}

// ListMembers returns members, newest registrations first.
func (s *Service) ListMembers(ctx context.Context, includeInactive bool) ([]domain.Member, error) {
	recs, err := s.members.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0, len(recs))
	for _, r := range recs {
		out = append(out, toDomain(r))
	}
	return out, nil
}

// UpdateProfileInput uses tri-state optionals: an unspecified field is left
// alone, a null field is cleared, a valued field is replaced.
type UpdateProfileInput struct {
	FullName    Optional[string]
	CourseID    Optional[domain.CourseID] // may be null to clear
	CourseOther Optional[string]
}

// UpdateProfile applies a partial profile update to a member.
func (s *Service) UpdateProfile(ctx context.Context, id domain.MemberID, in UpdateProfileInput) (domain.Member, error) {
	rec, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, apperror.NotFound("member not found")
		}
		return domain.Member{}, err
	}

	if in.FullName.IsSpecified() {
		if in.FullName.IsNull() {
			return domain.Member{}, apperror.Validation("invalid full name", map[string]any{
				"fullName": "cannot be null",
			})
		}
		name := domain.NormalizeHumanName(in.FullName.Value())
		if name == "" {
			return domain.Member{}, apperror.Validation("invalid full name", map[string]any{
				"fullName": "must be non-empty",
			})
		}
		rec.FullName = name
	}
	if in.CourseID.IsSpecified() {
		if in.CourseID.IsNull() {
			rec.CourseID = nil
		} else {
			cid := in.CourseID.Value()
			if _, err := s.departments.GetCourse(ctx, cid); err != nil {
				if errors.Is(err, departmentrepo.ErrCourseNotFound) {
					return domain.Member{}, apperror.Validation("unknown course", map[string]any{
						"courseId": "course does not exist",
					})
				}
				return domain.Member{}, err
			}
			rec.CourseID = &cid
		}
	}
	if in.CourseOther.IsSpecified() {
		if in.CourseOther.IsNull() {
			rec.CourseOther = ""
		} else {
			rec.CourseOther = strings.TrimSpace(in.CourseOther.Value())
		}
	}

	rec.UpdatedAt = s.clk.Now()
	if err := s.members.Update(ctx, rec); err != nil {
		return domain.Member{}, fmt.Errorf("update member: %w", err)
	}
	return toDomain(rec), nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func toDomain(m memberrepo.Member) domain.Member {
	out := domain.Member{
		ID:               m.ID,
		RegNumber:        m.RegNumber,
		Email:            m.Email,
		FullName:         m.FullName,
		DepartmentID:     m.DepartmentID,
		CourseOther:      m.CourseOther,
		Approved:         m.Approved,
		IsActive:         m.IsActive,
		Staff:            m.Staff,
		Katibu:           m.Katibu,
		KatibuAssistant:  m.KatibuAssistant,
		DepartmentLeader: m.DepartmentLeader,
		HasPicture:       m.HasPicture,
		RegisteredAt:     m.RegisteredAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
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
