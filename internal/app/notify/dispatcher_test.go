package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/mailer"
)

type fakeMailer struct {
	mu         sync.Mutex
	sent       []mailer.Message
	failFor    map[string]error // recipient -> permanent error
	failFirstN int              // transient failures before success
	attempts   int
	configured bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: map[string]error{}, configured: true}
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failFirstN > 0 {
		f.failFirstN--
		return errors.New("transient smtp failure")
	}
	for _, to := range msg.To {
		if err, ok := f.failFor[to]; ok {
			return err
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) sentTo(addr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		for _, to := range m.To {
			if to == addr {
				n++
			}
		}
	}
	return n
}

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) Render(name string, _ any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "rendered:" + name, nil
}

type fakeStaff struct {
	emails []string
	err    error
}

func (f fakeStaff) StaffEmails(context.Context) ([]string, error) { return f.emails, f.err }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testMember() domain.Member {
	return domain.Member{
		ID:           "m-1",
		RegNumber:    "T/UDOM/2025/0042",
		Email:        "member@example.com",
		FullName:     "Asha Mushi",
		RegisteredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestDispatcher(mail *fakeMailer, staff fakeStaff) *Dispatcher {
	d := NewDispatcher(mail, fakeRenderer{}, staff, quietLogger(), "club@example.com")
	d.RetryDelay = 0
	d.sleep = func(time.Duration) {}
	return d
}

func TestDispatcher_Notify_MemberAndStaffFanOut(t *testing.T) {
	mail := newFakeMailer()
	d := newTestDispatcher(mail, fakeStaff{emails: []string{"staff1@example.com", "staff2@example.com", "staff1@example.com", ""}})

	sent, err := d.Notify(context.Background(), KindApproved, testMember())

	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, mail.sentTo("member@example.com"))
	// Staff copies deduplicated, empty addresses dropped.
	assert.Equal(t, 1, mail.sentTo("staff1@example.com"))
	assert.Equal(t, 1, mail.sentTo("staff2@example.com"))
}

func TestDispatcher_Notify_ReminderHasNoStaffCopy(t *testing.T) {
	mail := newFakeMailer()
	d := newTestDispatcher(mail, fakeStaff{emails: []string{"staff1@example.com"}})

	sent, err := d.Notify(context.Background(), KindPictureReminder, testMember())

	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, mail.sentTo("member@example.com"))
	assert.Equal(t, 0, mail.sentTo("staff1@example.com"))
}

func TestDispatcher_Notify_RetriesThenSucceeds(t *testing.T) {
	mail := newFakeMailer()
	mail.failFirstN = 2
	slept := 0
	d := newTestDispatcher(mail, fakeStaff{})
	d.sleep = func(time.Duration) { slept++ }

	sent, err := d.Notify(context.Background(), KindPictureReminder, testMember())

	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 3, mail.attempts)
	assert.Equal(t, 2, slept)
}

func TestDispatcher_Notify_ExhaustedRetriesReportedNotRaised(t *testing.T) {
	mail := newFakeMailer()
	mail.failFor["member@example.com"] = errors.New("mailbox unavailable")
	d := newTestDispatcher(mail, fakeStaff{emails: []string{"staff1@example.com"}})

	sent, err := d.Notify(context.Background(), KindApproved, testMember())

	assert.False(t, sent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	// Best-effort mode still fans out to staff after the member send fails.
	assert.Equal(t, 1, mail.sentTo("staff1@example.com"))
}

func TestDispatcher_NotifyStrict_PropagatesTransportError(t *testing.T) {
	mail := newFakeMailer()
	transportErr := errors.New("connection refused")
	mail.failFor["member@example.com"] = transportErr
	d := newTestDispatcher(mail, fakeStaff{emails: []string{"staff1@example.com"}})

	sent, err := d.NotifyStrict(context.Background(), KindApproved, testMember())

	assert.False(t, sent)
	require.ErrorIs(t, err, transportErr)
	// Strict mode returns before the staff fan-out.
	assert.Equal(t, 0, mail.sentTo("staff1@example.com"))
}

func TestDispatcher_Notify_UnconfiguredMailerRefusesToSend(t *testing.T) {
	mail := newFakeMailer()
	mail.configured = false
	d := newTestDispatcher(mail, fakeStaff{})

	sent, err := d.Notify(context.Background(), KindApproved, testMember())

	assert.False(t, sent)
	require.ErrorIs(t, err, mailer.ErrNotConfigured)
	assert.Equal(t, 0, mail.attempts)
}

func TestDispatcher_Broadcast_DropsMalformedAndAggregates(t *testing.T) {
	mail := newFakeMailer()
	mail.failFor["bob@example.com"] = errors.New("mailbox full")
	d := newTestDispatcher(mail, fakeStaff{})

	recipients := []string{
		"alice@example.com",
		"bob@example.com",
		"carol@example.com",
		"not-an-address", // dropped before send
		"",               // dropped before send
		"alice@example.com", // duplicate
	}
	res := d.Broadcast(context.Background(), "Announcement: AGM", "body", recipients, 2)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, res.Total, res.Successful+res.Failed)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.Failed)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "invalid email addresses")
	// One recipient failing does not abort the rest of the batch.
	assert.Equal(t, 1, mail.sentTo("carol@example.com"))
}

func TestDispatcher_Broadcast_UnconfiguredMailer(t *testing.T) {
	mail := newFakeMailer()
	mail.configured = false
	d := newTestDispatcher(mail, fakeStaff{})

	res := d.Broadcast(context.Background(), "s", "b", []string{"a@example.com"}, 10)

	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, mail.attempts)
}

func TestDispatcher_Notify_TemplateFailure(t *testing.T) {
	mail := newFakeMailer()
	d := newTestDispatcher(mail, fakeStaff{})
	d.render = fakeRenderer{err: errors.New("unknown template")}

	sent, err := d.Notify(context.Background(), KindApproved, testMember())

	assert.False(t, sent)
	require.Error(t, err)
	assert.Equal(t, 0, mail.attempts)
}
