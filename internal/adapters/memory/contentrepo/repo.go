package contentrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/contentrepo"
)

// Repo is an in-memory implementation of contentrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	projects      map[domain.ProjectID]domain.Project
	projectBySlug map[string]domain.ProjectID
	events        map[domain.EventID]domain.Event
	announcements map[domain.AnnouncementID]domain.Announcement
	messages      map[domain.ContactMessageID]domain.ContactMessage
}

func NewRepo() *Repo {
	return &Repo{
		projects:      make(map[domain.ProjectID]domain.Project),
		projectBySlug: make(map[string]domain.ProjectID),
		events:        make(map[domain.EventID]domain.Event),
		announcements: make(map[domain.AnnouncementID]domain.Announcement),
		messages:      make(map[domain.ContactMessageID]domain.ContactMessage),
	}
}

func (r *Repo) CreateProject(ctx context.Context, p domain.Project) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projectBySlug[p.Slug]; ok {
		return contentrepo.ErrSlugTaken
	}
	r.projects[p.ID] = p
	r.projectBySlug[p.Slug] = p.ID
	return nil
}

func (r *Repo) GetProjectBySlug(ctx context.Context, slug string) (domain.Project, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.projectBySlug[slug]
	if !ok {
		return domain.Project{}, contentrepo.ErrNotFound
	}
	return r.projects[id], nil
}

func (r *Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	// Featured first, then newest first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) CreateEvent(ctx context.Context, e domain.Event) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.ID] = e
	return nil
}

func (r *Repo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) ListUpcomingEvents(ctx context.Context, now time.Time) ([]domain.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Event, 0)
	for _, e := range r.events {
		if e.EventDate.Before(now) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) CreateAnnouncement(ctx context.Context, a domain.Announcement) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announcements[a.ID] = a
	return nil
}

func (r *Repo) UpdateAnnouncement(ctx context.Context, a domain.Announcement) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.announcements[a.ID]; !ok {
		return contentrepo.ErrNotFound
	}
	r.announcements[a.ID] = a
	return nil
}

func (r *Repo) GetAnnouncement(ctx context.Context, id domain.AnnouncementID) (domain.Announcement, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.announcements[id]
	if !ok {
		return domain.Announcement{}, contentrepo.ErrNotFound
	}
	return a, nil
}

func (r *Repo) ListAnnouncements(ctx context.Context, publishedOnly bool) ([]domain.Announcement, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Announcement, 0, len(r.announcements))
	for _, a := range r.announcements {
		if publishedOnly && !a.Published {
			continue
		}
		out = append(out, a)
	}
	sortNewestFirst(out, func(a domain.Announcement) (time.Time, string) { return a.CreatedAt, string(a.ID) })
	return out, nil
}

func (r *Repo) CreateContactMessage(ctx context.Context, m domain.ContactMessage) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ID] = m
	return nil
}

func (r *Repo) ListContactMessages(ctx context.Context, unrespondedOnly bool) ([]domain.ContactMessage, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ContactMessage, 0, len(r.messages))
	for _, m := range r.messages {
		if unrespondedOnly && m.Responded {
			continue
		}
		out = append(out, m)
	}
	sortNewestFirst(out, func(m domain.ContactMessage) (time.Time, string) { return m.CreatedAt, string(m.ID) })
	return out, nil
}

func (r *Repo) MarkContactResponded(ctx context.Context, id domain.ContactMessageID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return contentrepo.ErrNotFound
	}
	m.Responded = true
	r.messages[id] = m
	return nil
}

func sortNewestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi < idj
	})
}
