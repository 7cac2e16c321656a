package domain

import "time"

// PictureUploadWindow is how long a new member has to upload a profile
// picture, counted from registration.
const PictureUploadWindow = 72 * time.Hour

// StatusLabel is the display status derived from a member's lifecycle flags.
// It is computed, never stored.
type StatusLabel string

const (
	StatusInactive       StatusLabel = "Inactive"
	StatusPending        StatusLabel = "Pending"
	StatusPictureOverdue StatusLabel = "Picture Overdue"
	StatusActive         StatusLabel = "Active"
)

// Member is the domain representation of a club member account.
type Member struct {
	ID        MemberID
	RegNumber string
	Email     string
	FullName  string

	DepartmentID DepartmentID
	CourseID     *CourseID
	CourseOther  string

	Approved bool
	IsActive bool

	// Role flags. Staff may act across departments; a department leader only
	// within their own department.
	Staff            bool
	Katibu           bool
	KatibuAssistant  bool
	DepartmentLeader bool

	HasPicture        bool
	PictureUploadedAt *time.Time

	RegisteredAt time.Time
	ApprovedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PictureUploadDeadline returns the timestamp by which the member must upload
// a profile picture. The zero time means no deadline (a member with no
// registration timestamp is never overdue).
func (m Member) PictureUploadDeadline() time.Time {
	if m.RegisteredAt.IsZero() {
		return time.Time{}
	}
	return m.RegisteredAt.Add(PictureUploadWindow)
}

// IsPictureOverdue reports whether the picture-upload window has elapsed
// without a picture being uploaded.
func (m Member) IsPictureOverdue(now time.Time) bool {
	if m.HasPicture {
		return false
	}
	deadline := m.PictureUploadDeadline()
	if deadline.IsZero() {
		return false
	}
	return now.After(deadline)
}

// TimeUntilPictureDeadline returns the remaining time before the upload
// deadline. A negative duration means the deadline has passed. The second
// return is false when the member has no deadline.
func (m Member) TimeUntilPictureDeadline(now time.Time) (time.Duration, bool) {
	deadline := m.PictureUploadDeadline()
	if deadline.IsZero() {
		return 0, false
	}
	return deadline.Sub(now), true
}

// Status derives the display label from the member's flags and the clock.
func (m Member) Status(now time.Time) StatusLabel {
	switch {
	case !m.IsActive:
		return StatusInactive
	case !m.Approved:
		return StatusPending
	case m.IsPictureOverdue(now):
		return StatusPictureOverdue
	default:
		return StatusActive
	}
}

// IsStaffLike reports whether the member carries club-wide administrative
// privilege (exempt from the picture enforcement guard).
func (m Member) IsStaffLike() bool {
	return m.Staff
}

// IsLeadership reports whether the member holds any leadership role.
func (m Member) IsLeadership() bool {
	return m.Staff || m.Katibu || m.KatibuAssistant || m.DepartmentLeader
}

// CanApprove reports whether actor may approve or reject a member belonging
// to dept. Staff and secretaries act club-wide; a department leader only
// within their own department.
func CanApprove(actor Member, dept DepartmentID) bool {
	if !actor.IsActive {
		return false
	}
	if actor.Staff || actor.Katibu || actor.KatibuAssistant {
		return true
	}
	return actor.DepartmentLeader && actor.DepartmentID == dept
}
