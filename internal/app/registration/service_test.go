package registration

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memclock "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/clock"
	memdeptrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/departmentrepo"
	memmemberrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/memberrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type recordingNotifier struct {
	calls []notify.Kind
}

func (n *recordingNotifier) Notify(_ context.Context, kind notify.Kind, _ domain.Member) (bool, error) {
	n.calls = append(n.calls, kind)
	return true, nil
}

func newTestService(t *testing.T) (*Service, *recordingNotifier, *memclock.ManualClock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	depts := memdeptrepo.NewRepo()
	require.NoError(t, depts.CreateDepartment(context.Background(), domain.Department{
		ID: "dept-prog", Name: "Programming", Slug: "programming",
	}))
	require.NoError(t, depts.CreateCourse(context.Background(), domain.Course{
		ID: "course-cs", Name: "BSc Computer Science", Code: "CS",
	}))

	clk := memclock.NewManualClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	svc := NewService(memmemberrepo.NewRepo(), depts, clk, notifier, log)
	return svc, notifier, clk
}

func validInput() RegisterInput {
	return RegisterInput{
		RegNumber:    "T/UDOM/2025/0042",
		Email:        "asha@example.com",
		FullName:     "  Asha   Mushi ",
		DepartmentID: "dept-prog",
	}
}

func TestService_Register_CreatesPendingMember(t *testing.T) {
	t.Parallel()
	svc, notifier, clk := newTestService(t)

	res, err := svc.Register(context.Background(), validInput())

	require.NoError(t, err)
	m := res.Member
	assert.Equal(t, "Asha Mushi", m.FullName)
	assert.False(t, m.Approved)
	assert.True(t, m.IsActive)
	assert.Equal(t, clk.Now(), m.RegisteredAt)
	assert.Nil(t, m.ApprovedAt)
	assert.Equal(t, []notify.Kind{notify.KindRegistered}, notifier.calls)
	assert.Equal(t, domain.StatusPending, m.Status(clk.Now()))
}

func TestService_Register_RejectsBadRegNumber(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	in := validInput()
	in.RegNumber = "T 2025 !!"
	_, err := svc.Register(context.Background(), in)

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

func TestService_Register_RejectsUnknownDepartment(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	in := validInput()
	in.DepartmentID = "dept-nope"
	_, err := svc.Register(context.Background(), in)

	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

func TestService_Register_DuplicateRegNumberAndEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.Email = "other@example.com"
	_, err = svc.Register(context.Background(), dup)
	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "REG_NUMBER_TAKEN", ae.Code)

	dup = validInput()
	dup.RegNumber = "T/UDOM/2025/0099"
	_, err = svc.Register(context.Background(), dup)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "EMAIL_TAKEN", ae.Code)
}

func TestService_UpdateProfile_TriState(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	in := validInput()
	cid := domain.CourseID("course-cs")
	in.CourseID = &cid
	res, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(context.Background(), res.Member.ID, UpdateProfileInput{
		FullName: Some("  Asha  M.  Mushi "),
		CourseID: Null[domain.CourseID](),
	})

	require.NoError(t, err)
	assert.Equal(t, "Asha M. Mushi", updated.FullName)
	assert.Nil(t, updated.CourseID)

	// Unspecified fields stay put.
	again, err := svc.UpdateProfile(context.Background(), res.Member.ID, UpdateProfileInput{
		CourseOther: Some("Information Systems"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha M. Mushi", again.FullName)
	assert.Equal(t, "Information Systems", again.CourseOther)
}
