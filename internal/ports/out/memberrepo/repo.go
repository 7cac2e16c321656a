package memberrepo

import (
	"context"
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

// Member is the persistence shape used by the member repository. It is an
// internal record, not an HTTP DTO.
type Member struct {
	ID        domain.MemberID
	RegNumber string
	Email     string
	FullName  string

	DepartmentID domain.DepartmentID
	CourseID     *domain.CourseID
	CourseOther  string

	Approved bool
	IsActive bool

	Staff            bool
	Katibu           bool
	KatibuAssistant  bool
	DepartmentLeader bool

	HasPicture        bool
	PicturePath       string
	PictureUploadedAt *time.Time

	RegisteredAt time.Time
	ApprovedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApprovalUpdate is a partial write touching only the approval fields, so a
// concurrent profile edit is not clobbered by an approve/reject action.
type ApprovalUpdate struct {
	Approved   *bool
	IsActive   *bool
	ApprovedAt *time.Time
	UpdatedAt  time.Time
}

// PictureUpdate is a partial write touching only the picture fields.
type PictureUpdate struct {
	PicturePath       string
	PictureUploadedAt time.Time
	UpdatedAt         time.Time
}

// Repository provides access to persisted members.
//
// Result ordering expectations:
// - List methods return results ordered by RegisteredAt descending (newest
//   registrations first) to keep behavior deterministic.
type Repository interface {
	Create(ctx context.Context, m Member) error
	Update(ctx context.Context, m Member) error

	// ApplyApproval applies a partial approval-field update.
	ApplyApproval(ctx context.Context, id domain.MemberID, u ApprovalUpdate) error
	// SetPicture applies a partial picture-field update.
	SetPicture(ctx context.Context, id domain.MemberID, u PictureUpdate) error

	GetByID(ctx context.Context, id domain.MemberID) (Member, error)
	GetByRegNumber(ctx context.Context, regNumber string) (Member, error)
	GetByEmail(ctx context.Context, email string) (Member, error)

	List(ctx context.Context, includeInactive bool) ([]Member, error)
	// ListPending returns active, unapproved members, optionally restricted
	// to one department.
	ListPending(ctx context.Context, dept *domain.DepartmentID) ([]Member, error)
	// ListPictureOverdue returns active approved members with no picture
	// whose upload deadline precedes now.
	ListPictureOverdue(ctx context.Context, now time.Time) ([]Member, error)

	// StaffEmails returns the deduplicated, non-empty email addresses of all
	// staff members.
	StaffEmails(ctx context.Context) ([]string, error)
	// ApprovedMemberEmails returns the deduplicated, non-empty email
	// addresses of all approved active members.
	ApprovedMemberEmails(ctx context.Context) ([]string, error)
}
