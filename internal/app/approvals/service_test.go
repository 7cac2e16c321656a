package approvals

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
	memmemberrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/memberrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
)

type recordingNotifier struct {
	calls []notify.Kind
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, kind notify.Kind, _ domain.Member) (bool, error) {
	n.calls = append(n.calls, kind)
	if n.err != nil {
		return false, n.err
	}
	return true, nil
}

type fixture struct {
	repo     *memmemberrepo.Repo
	clk      *memclock.ManualClock
	notifier *recordingNotifier
	svc      *Service
	t0       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		repo:     memmemberrepo.NewRepo(),
		notifier: &recordingNotifier{},
		t0:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.clk = memclock.NewManualClock(f.t0)
	f.svc = NewService(f.repo, f.clk, f.notifier, log)
	return f
}

func (f *fixture) addMember(t *testing.T, m memberrepo.Member) {
	t.Helper()
	if m.RegisteredAt.IsZero() {
		m.RegisteredAt = f.t0
	}
	m.CreatedAt = f.t0
	m.UpdatedAt = f.t0
	require.NoError(t, f.repo.Create(context.Background(), m))
}

func (f *fixture) staffActor(t *testing.T) domain.MemberID {
	t.Helper()
	f.addMember(t, memberrepo.Member{
		ID: "staff-1", RegNumber: "STAFF/001", Email: "staff@example.com",
		FullName: "Neema Kassim", DepartmentID: "dept-prog",
		Approved: true, IsActive: true, Staff: true, HasPicture: true,
	})
	return "staff-1"
}

func (f *fixture) pendingMember(t *testing.T, id domain.MemberID, dept domain.DepartmentID) {
	t.Helper()
	f.addMember(t, memberrepo.Member{
		ID: id, RegNumber: "T/2025/" + string(id), Email: string(id) + "@example.com",
		FullName: "Juma Said", DepartmentID: dept, IsActive: true,
	})
}

func TestService_Approve_SetsTimestampAndNotifies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")

	f.clk.Advance(time.Hour)
	res, err := f.svc.Approve(context.Background(), "m-1", staff)

	require.NoError(t, err)
	assert.False(t, res.AlreadyApproved)
	assert.True(t, res.Member.Approved)
	require.NotNil(t, res.Member.ApprovedAt)
	assert.Equal(t, f.t0.Add(time.Hour), *res.Member.ApprovedAt)
	assert.Equal(t, []notify.Kind{notify.KindApproved}, f.notifier.calls)
}

func TestService_Approve_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")

	f.clk.Advance(time.Hour)
	first, err := f.svc.Approve(context.Background(), "m-1", staff)
	require.NoError(t, err)

	f.clk.Advance(time.Hour)
	second, err := f.svc.Approve(context.Background(), "m-1", staff)

	require.NoError(t, err)
	assert.True(t, second.AlreadyApproved)
	// The approval timestamp is not rewritten and no second notification
	// goes out.
	assert.Equal(t, *first.Member.ApprovedAt, *second.Member.ApprovedAt)
	assert.Equal(t, []notify.Kind{notify.KindApproved}, f.notifier.calls)
}

func TestService_Approve_LeaderScopedToOwnDepartment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addMember(t, memberrepo.Member{
		ID: "leader-net", RegNumber: "L/001", Email: "leader@example.com",
		FullName: "Rehema Paul", DepartmentID: "dept-net",
		Approved: true, IsActive: true, DepartmentLeader: true, HasPicture: true,
	})
	f.pendingMember(t, "m-prog", "dept-prog")

	_, err := f.svc.Approve(context.Background(), "m-prog", "leader-net")

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)
	assert.Equal(t, 403, ae.Status)
	// No mutation, no notification.
	rec, getErr := f.repo.GetByID(context.Background(), "m-prog")
	require.NoError(t, getErr)
	assert.False(t, rec.Approved)
	assert.Empty(t, f.notifier.calls)
}

func TestService_Approve_NotificationFailureIsSoftWarning(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")
	f.notifier.err = errors.New("smtp down")

	res, err := f.svc.Approve(context.Background(), "m-1", staff)

	require.NoError(t, err)
	assert.NotEmpty(t, res.NotifyWarning)
	// The transition is durable regardless of the notification outcome.
	rec, getErr := f.repo.GetByID(context.Background(), "m-1")
	require.NoError(t, getErr)
	assert.True(t, rec.Approved)
}

func TestService_Reject_FromPending(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")

	res, err := f.svc.Reject(context.Background(), "m-1", staff)

	require.NoError(t, err)
	assert.False(t, res.Member.IsActive)
	assert.Equal(t, []notify.Kind{notify.KindRejected}, f.notifier.calls)

	// Rejection is logically terminal: a second reject is an invalid
	// transition, and status reads Inactive regardless of approval flags.
	_, err = f.svc.Reject(context.Background(), "m-1", staff)
	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "INVALID_TRANSITION", ae.Code)

	label, err := f.svc.Status(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, label)
}

func TestService_Reject_ApprovedMemberGovernedByPolicy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")
	_, err := f.svc.Approve(context.Background(), "m-1", staff)
	require.NoError(t, err)

	// Default policy: approval cannot be revoked.
	_, err = f.svc.Reject(context.Background(), "m-1", staff)
	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "INVALID_TRANSITION", ae.Code)

	// With the policy enabled the same call deactivates the member.
	f.svc.AllowRejectApproved = true
	res, err := f.svc.Reject(context.Background(), "m-1", staff)
	require.NoError(t, err)
	assert.False(t, res.Member.IsActive)
}

func TestService_UploadPicture_BeforeApprovalFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.pendingMember(t, "m-1", "dept-prog")

	_, err := f.svc.UploadPicture(context.Background(), "m-1", PictureUpload{Filename: "me.jpg"})

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "INVALID_TRANSITION", ae.Code)
	rec, getErr := f.repo.GetByID(context.Background(), "m-1")
	require.NoError(t, getErr)
	assert.Nil(t, rec.PictureUploadedAt)
}

func TestService_UploadPicture_RejectsUnsupportedFormat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")
	_, err := f.svc.Approve(context.Background(), "m-1", staff)
	require.NoError(t, err)

	_, err = f.svc.UploadPicture(context.Background(), "m-1", PictureUpload{Filename: "me.gif"})

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

// Scenario: register at T0, approve at T0+1h, no picture. The member is not
// overdue until 72h after registration; past that the status flips.
func TestService_Lifecycle_DeadlineFlipsStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")

	label, err := f.svc.Status(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, label)

	f.clk.Advance(time.Hour)
	_, err = f.svc.Approve(context.Background(), "m-1", staff)
	require.NoError(t, err)

	// Just before the deadline (72h after registration, not approval).
	f.clk.Set(f.t0.Add(72*time.Hour - time.Second))
	label, err = f.svc.Status(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, label)

	f.clk.Set(f.t0.Add(72*time.Hour + time.Second))
	label, err = f.svc.Status(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPictureOverdue, label)
}

// Scenario: picture uploaded before the deadline keeps the member in good
// standing forever after.
func TestService_Lifecycle_UploadClearsOverdue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	staff := f.staffActor(t)
	f.pendingMember(t, "m-1", "dept-prog")

	f.clk.Advance(time.Hour)
	_, err := f.svc.Approve(context.Background(), "m-1", staff)
	require.NoError(t, err)

	f.clk.Set(f.t0.Add(11 * time.Hour))
	m, err := f.svc.UploadPicture(context.Background(), "m-1", PictureUpload{Filename: "me.png"})
	require.NoError(t, err)
	assert.True(t, m.HasPicture)

	f.clk.Set(f.t0.Add(500 * time.Hour))
	label, err := f.svc.Status(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, label)
}

func TestService_PendingMembers_LeaderSeesOwnDepartmentOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addMember(t, memberrepo.Member{
		ID: "leader-prog", RegNumber: "L/002", Email: "lp@example.com",
		FullName: "Baraka John", DepartmentID: "dept-prog",
		Approved: true, IsActive: true, DepartmentLeader: true, HasPicture: true,
	})
	f.pendingMember(t, "m-prog", "dept-prog")
	f.pendingMember(t, "m-net", "dept-net")

	pending, err := f.svc.PendingMembers(context.Background(), "leader-prog")

	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.MemberID("m-prog"), pending[0].ID)
}

func TestService_PendingMembers_PlainMemberDenied(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.pendingMember(t, "m-1", "dept-prog")

	_, err := f.svc.PendingMembers(context.Background(), "m-1")

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)
}
