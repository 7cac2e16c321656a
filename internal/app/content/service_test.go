package content

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memclock "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/clock"
	memcontentrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/contentrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type fakeBroadcaster struct {
	announcements []domain.Announcement
	total, failed int
	err           error
}

func (b *fakeBroadcaster) BroadcastAnnouncement(_ context.Context, a domain.Announcement) (int, int, error) {
	b.announcements = append(b.announcements, a)
	return b.total, b.failed, b.err
}

func newTestService(t *testing.T) (*Service, *fakeBroadcaster, *memclock.ManualClock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	clk := memclock.NewManualClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	b := &fakeBroadcaster{total: 5}
	return NewService(memcontentrepo.NewRepo(), clk, b, log), b, clk
}

func TestService_CreateProject_SlugFromTitle(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	p, err := svc.CreateProject(context.Background(), ProjectInput{
		Title:       "  Club Website (v2)  ",
		Description: "The public website of the club.",
	})

	require.NoError(t, err)
	assert.Equal(t, "Club Website (v2)", p.Title)
	assert.Equal(t, "club-website-v2", p.Slug)

	got, err := svc.GetProjectBySlug(context.Background(), "club-website-v2")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestService_CreateProject_RejectsShortDescription(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.CreateProject(context.Background(), ProjectInput{
		Title:       "Tiny",
		Description: "too short",
	})

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

func TestService_CreateProject_DuplicateSlugConflicts(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.CreateProject(context.Background(), ProjectInput{
		Title:       "Attendance Tracker",
		Description: "Tracks attendance at weekly meetings.",
	})
	require.NoError(t, err)

	_, err = svc.CreateProject(context.Background(), ProjectInput{
		Title:       "Attendance  Tracker",
		Description: "A second project that slugs the same.",
	})
	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "SLUG_TAKEN", ae.Code)
}

func TestService_ListEvents_UpcomingOnly(t *testing.T) {
	t.Parallel()
	svc, _, clk := newTestService(t)

	_, err := svc.CreateEvent(context.Background(), EventInput{
		Title:     "Past Hackathon",
		EventDate: clk.Now().Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	future, err := svc.CreateEvent(context.Background(), EventInput{
		Title:     "Tech Week",
		EventDate: clk.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)

	all, err := svc.ListEvents(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := svc.ListEvents(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, future.ID, upcoming[0].ID)
}

func TestService_PublishAnnouncement_BroadcastsOnce(t *testing.T) {
	t.Parallel()
	svc, b, _ := newTestService(t)

	a, err := svc.CreateAnnouncement(context.Background(), AnnouncementInput{
		Title:   "General Meeting",
		Content: "The general meeting is on Friday at 4pm.",
	})
	require.NoError(t, err)
	assert.False(t, a.Published)
	assert.Equal(t, domain.AnnouncementGeneral, a.Type)

	res, err := svc.PublishAnnouncement(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, res.Announcement.Published)
	assert.Equal(t, 5, res.Recipients)
	require.Len(t, b.announcements, 1)

	// Publishing twice is an invalid transition, not a second broadcast.
	_, err = svc.PublishAnnouncement(context.Background(), a.ID)
	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "INVALID_TRANSITION", ae.Code)
	assert.Len(t, b.announcements, 1)
}

func TestService_PublishAnnouncement_BroadcastFailureIsSoft(t *testing.T) {
	t.Parallel()
	svc, b, _ := newTestService(t)
	b.err = errors.New("smtp down")

	a, err := svc.CreateAnnouncement(context.Background(), AnnouncementInput{
		Title:   "Urgent Notice",
		Content: "The lab is closed tomorrow morning.",
		Type:    domain.AnnouncementUrgent,
	})
	require.NoError(t, err)

	res, err := svc.PublishAnnouncement(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, res.Announcement.Published)

	list, err := svc.ListAnnouncements(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_CreateAnnouncement_RejectsUnknownType(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.CreateAnnouncement(context.Background(), AnnouncementInput{
		Title:   "Oops",
		Content: "This announcement has a bad type.",
		Type:    domain.AnnouncementType("spam"),
	})

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

func TestSlugify(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Hello World":        "hello-world",
		"  C++ & Go!  ":      "c-go",
		"already-sluggy":     "already-sluggy",
		"MANY   spaces here": "many-spaces-here",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}
