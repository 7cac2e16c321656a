package scheduler

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	memclock "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/clock"
	memmemberrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/memberrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/mailer"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (c *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) Configured() bool { return true }

func (c *captureMailer) sentTo(addr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.sent {
		for _, to := range m.To {
			if to == addr {
				n++
			}
		}
	}
	return n
}

type passRenderer struct{}

func (passRenderer) Render(name string, _ any) (string, error) { return "rendered:" + name, nil }

func newTestScheduler(t *testing.T) (*Scheduler, *memmemberrepo.Repo, *captureMailer, *memclock.ManualClock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	members := memmemberrepo.NewRepo()
	clk := memclock.NewManualClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	mail := &captureMailer{}
	d := notify.NewDispatcher(mail, passRenderer{}, members, log, "club@example.com")
	d.RetryDelay = 0

	return New(members, d, passRenderer{}, clk, log), members, mail, clk
}

func seed(t *testing.T, repo *memmemberrepo.Repo, m memberrepo.Member) {
	t.Helper()
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestScheduler_RunPictureReminders(t *testing.T) {
	s, members, mail, clk := newTestScheduler(t)
	seed(t, members, memberrepo.Member{
		ID: "overdue", RegNumber: "O/1", Email: "overdue@example.com",
		FullName: "Overdue Member", DepartmentID: "d1",
		Approved: true, IsActive: true,
		RegisteredAt: clk.Now().Add(-100 * time.Hour),
	})
	seed(t, members, memberrepo.Member{
		ID: "fresh", RegNumber: "F/1", Email: "fresh@example.com",
		FullName: "Fresh Member", DepartmentID: "d1",
		Approved: true, IsActive: true,
		RegisteredAt: clk.Now().Add(-time.Hour),
	})
	seed(t, members, memberrepo.Member{
		ID: "pictured", RegNumber: "P/1", Email: "pictured@example.com",
		FullName: "Pictured Member", DepartmentID: "d1",
		Approved: true, IsActive: true, HasPicture: true,
		RegisteredAt: clk.Now().Add(-100 * time.Hour),
	})

	s.RunPictureReminders(context.Background())

	if got := mail.sentTo("overdue@example.com"); got != 1 {
		t.Errorf("overdue member reminders = %d, want 1", got)
	}
	if got := mail.sentTo("fresh@example.com"); got != 0 {
		t.Errorf("member inside the window got a reminder")
	}
	if got := mail.sentTo("pictured@example.com"); got != 0 {
		t.Errorf("member with a picture got a reminder")
	}
}

func TestScheduler_RunPendingDigest(t *testing.T) {
	s, members, mail, clk := newTestScheduler(t)
	seed(t, members, memberrepo.Member{
		ID: "staff", RegNumber: "S/1", Email: "staff@example.com",
		FullName: "Staff Member", DepartmentID: "d1",
		Approved: true, IsActive: true, Staff: true,
		RegisteredAt: clk.Now(),
	})
	seed(t, members, memberrepo.Member{
		ID: "pending", RegNumber: "P/1", Email: "pending@example.com",
		FullName: "Pending Member", DepartmentID: "d1",
		IsActive:     true,
		RegisteredAt: clk.Now(),
	})

	s.RunPendingDigest(context.Background())

	if got := mail.sentTo("staff@example.com"); got != 1 {
		t.Fatalf("staff digest copies = %d, want 1", got)
	}
	mail.mu.Lock()
	subject := mail.sent[0].Subject
	mail.mu.Unlock()
	if !strings.Contains(subject, "1 awaiting review") {
		t.Errorf("subject = %q", subject)
	}
}

func TestScheduler_RunPendingDigest_NoPendingNoMail(t *testing.T) {
	s, members, mail, clk := newTestScheduler(t)
	seed(t, members, memberrepo.Member{
		ID: "staff", RegNumber: "S/1", Email: "staff@example.com",
		FullName: "Staff Member", DepartmentID: "d1",
		Approved: true, IsActive: true, Staff: true,
		RegisteredAt: clk.Now(),
	})

	s.RunPendingDigest(context.Background())

	if len(mail.sent) != 0 {
		t.Fatalf("expected no mail, got %d", len(mail.sent))
	}
}

func TestScheduler_RegisterRejectsBadSpec(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	if err := s.Register("not a cron spec", "0 8 * * 1"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	if err := s.Register("0 9 * * *", "0 8 * * 1"); err != nil {
		t.Fatalf("valid specs rejected: %v", err)
	}
}
