package contentrepo

import (
	"context"
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

// Repository provides access to published club content: projects, events,
// announcements and contact-form messages.
//
// Result ordering expectations:
// - Projects: featured first, then newest first.
// - Events: event date descending.
// - Announcements / contact messages: newest first.
type Repository interface {
	CreateProject(ctx context.Context, p domain.Project) error
	GetProjectBySlug(ctx context.Context, slug string) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)

	CreateEvent(ctx context.Context, e domain.Event) error
	ListEvents(ctx context.Context) ([]domain.Event, error)
	// ListUpcomingEvents returns events whose date is at or after now,
	// soonest first.
	ListUpcomingEvents(ctx context.Context, now time.Time) ([]domain.Event, error)

	CreateAnnouncement(ctx context.Context, a domain.Announcement) error
	UpdateAnnouncement(ctx context.Context, a domain.Announcement) error
	GetAnnouncement(ctx context.Context, id domain.AnnouncementID) (domain.Announcement, error)
	ListAnnouncements(ctx context.Context, publishedOnly bool) ([]domain.Announcement, error)

	CreateContactMessage(ctx context.Context, m domain.ContactMessage) error
	ListContactMessages(ctx context.Context, unrespondedOnly bool) ([]domain.ContactMessage, error)
	MarkContactResponded(ctx context.Context, id domain.ContactMessageID) error
}
