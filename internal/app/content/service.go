package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/contentrepo"
)

const minBodyLength = 10

// Broadcaster sends a bulk announcement email. Satisfied by
// *notify.AnnouncementBroadcaster.
type Broadcaster interface {
	BroadcastAnnouncement(ctx context.Context, a domain.Announcement) (total, failed int, err error)
}

// Service manages published club content: portfolio projects, events and
// announcements.
type Service struct {
	repo        contentrepo.Repository
	clk         clockport.Clock
	broadcaster Broadcaster
	log         *logrus.Logger

	newID func() string
}

func NewService(repo contentrepo.Repository, clk clockport.Clock, broadcaster Broadcaster, log *logrus.Logger) *Service {
	return &Service{
		repo:        repo,
		clk:         clk,
		broadcaster: broadcaster,
		log:         log,
		newID:       uuid.NewString,
	}
}

type ProjectInput struct {
	Title        string
	Description  string
	GitHubURL    string
	LiveURL      string
	DepartmentID *domain.DepartmentID
	CreatedBy    *domain.MemberID
	Featured     bool
}

func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (domain.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Project{}, apperror.Validation("invalid title", map[string]any{"title": "must be non-empty"})
	}
	if len(strings.TrimSpace(in.Description)) < minBodyLength {
		return domain.Project{}, apperror.Validation("invalid description", map[string]any{
			"description": fmt.Sprintf("must be at least %d characters", minBodyLength),
		})
	}

	now := s.clk.Now()
	p := domain.Project{
		ID:           domain.ProjectID(s.newID()),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Slug:         Slugify(title),
		GitHubURL:    strings.TrimSpace(in.GitHubURL),
		LiveURL:      strings.TrimSpace(in.LiveURL),
		DepartmentID: in.DepartmentID,
		CreatedBy:    in.CreatedBy,
		Featured:     in.Featured,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		if errors.Is(err, contentrepo.ErrSlugTaken) {
			return domain.Project{}, apperror.Conflict("SLUG_TAKEN", "a project with this title already exists")
		}
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) GetProjectBySlug(ctx context.Context, slug string) (domain.Project, error) {
	p, err := s.repo.GetProjectBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, contentrepo.ErrNotFound) {
			return domain.Project{}, apperror.NotFound("project not found")
		}
		return domain.Project{}, err
	}
	return p, nil
}

type EventInput struct {
	Title        string
	Description  string
	EventDate    time.Time
	Location     string
	DepartmentID *domain.DepartmentID
}

func (s *Service) CreateEvent(ctx context.Context, in EventInput) (domain.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Event{}, apperror.Validation("invalid title", map[string]any{"title": "must be non-empty"})
	}
	if in.EventDate.IsZero() {
		return domain.Event{}, apperror.Validation("invalid event date", map[string]any{"eventDate": "must be set"})
	}

	now := s.clk.Now()
	e := domain.Event{
		ID:           domain.EventID(s.newID()),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		EventDate:    in.EventDate,
		Location:     strings.TrimSpace(in.Location),
		DepartmentID: in.DepartmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

func (s *Service) ListEvents(ctx context.Context, upcomingOnly bool) ([]domain.Event, error) {
	if upcomingOnly {
		return s.repo.ListUpcomingEvents(ctx, s.clk.Now())
	}
	return s.repo.ListEvents(ctx)
}

type AnnouncementInput struct {
	Title        string
	Content      string
	Type         domain.AnnouncementType
	DepartmentID *domain.DepartmentID
	CreatedBy    *domain.MemberID
}

// CreateAnnouncement stores an unpublished announcement.
func (s *Service) CreateAnnouncement(ctx context.Context, in AnnouncementInput) (domain.Announcement, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Announcement{}, apperror.Validation("invalid title", map[string]any{"title": "must be non-empty"})
	}
	if len(strings.TrimSpace(in.Content)) < minBodyLength {
		return domain.Announcement{}, apperror.Validation("invalid content", map[string]any{
			"content": fmt.Sprintf("must be at least %d characters", minBodyLength),
		})
	}
	typ := in.Type
	if typ == "" {
		typ = domain.AnnouncementGeneral
	}
	switch typ {
	case domain.AnnouncementGeneral, domain.AnnouncementDepartment, domain.AnnouncementEvent, domain.AnnouncementUrgent:
	default:
		return domain.Announcement{}, apperror.Validation("invalid announcement type", map[string]any{
			"type": "must be one of general, department, event, urgent",
		})
	}

	now := s.clk.Now()
	a := domain.Announcement{
		ID:           domain.AnnouncementID(s.newID()),
		Title:        title,
		Content:      strings.TrimSpace(in.Content),
		Type:         typ,
		DepartmentID: in.DepartmentID,
		CreatedBy:    in.CreatedBy,
		Published:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		return domain.Announcement{}, fmt.Errorf("create announcement: %w", err)
	}
	return a, nil
}

// PublishResult reports the broadcast outcome alongside the announcement.
type PublishResult struct {
	Announcement domain.Announcement
	Recipients   int
	Failed       int
}

// PublishAnnouncement marks the announcement published, then broadcasts it
// to approved active members. The publish itself is durable regardless of
// the broadcast outcome.
func (s *Service) PublishAnnouncement(ctx context.Context, id domain.AnnouncementID) (PublishResult, error) {
	a, err := s.repo.GetAnnouncement(ctx, id)
	if err != nil {
		if errors.Is(err, contentrepo.ErrNotFound) {
			return PublishResult{}, apperror.NotFound("announcement not found")
		}
		return PublishResult{}, err
	}
	if a.Published {
		return PublishResult{}, apperror.InvalidTransition("announcement is already published")
	}

	a.Published = true
	a.UpdatedAt = s.clk.Now()
	if err := s.repo.UpdateAnnouncement(ctx, a); err != nil {
		return PublishResult{}, fmt.Errorf("publish announcement: %w", err)
	}

	total, failed, err := s.broadcaster.BroadcastAnnouncement(ctx, a)
	if err != nil {
		s.log.WithError(err).WithField("announcement", id).Warn("announcement published but broadcast failed")
	}
	return PublishResult{Announcement: a, Recipients: total, Failed: failed}, nil
}

func (s *Service) ListAnnouncements(ctx context.Context, publishedOnly bool) ([]domain.Announcement, error) {
	return s.repo.ListAnnouncements(ctx, publishedOnly)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses non-alphanumeric runs into hyphens.
func Slugify(s string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}
