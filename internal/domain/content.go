package domain

import "time"

// Project is a club project showcased on the public portfolio.
type Project struct {
	ID          ProjectID
	Title       string
	Description string
	Slug        string
	GitHubURL   string
	LiveURL     string

	DepartmentID *DepartmentID
	CreatedBy    *MemberID
	Featured     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event is a scheduled club activity.
type Event struct {
	ID          EventID
	Title       string
	Description string
	EventDate   time.Time
	Location    string

	DepartmentID *DepartmentID

	CreatedAt time.Time
	UpdatedAt time.Time
}

type AnnouncementType string

const (
	AnnouncementGeneral    AnnouncementType = "general"
	AnnouncementDepartment AnnouncementType = "department"
	AnnouncementEvent      AnnouncementType = "event"
	AnnouncementUrgent     AnnouncementType = "urgent"
)

// Announcement is a notice for members. Published announcements are also
// broadcast by email to approved active members.
type Announcement struct {
	ID      AnnouncementID
	Title   string
	Content string
	Type    AnnouncementType

	DepartmentID *DepartmentID
	CreatedBy    *MemberID
	Published    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	ID      ContactMessageID
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string

	Responded bool
	CreatedAt time.Time
}
