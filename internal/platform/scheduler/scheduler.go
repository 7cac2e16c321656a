// Package scheduler runs the periodic background jobs: picture-upload
// reminders and the staff digest of pending registrations.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/renderer"
)

type Scheduler struct {
	members  memberrepo.Repository
	notifier *notify.Dispatcher
	render   renderer.Renderer
	clk      clockport.Clock
	log      *logrus.Logger

	cron *cron.Cron
}

func New(members memberrepo.Repository, notifier *notify.Dispatcher, render renderer.Renderer, clk clockport.Clock, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		members:  members,
		notifier: notifier,
		render:   render,
		clk:      clk,
		log:      log,
		cron:     cron.New(),
	}
}

// Register binds the jobs to their cron specs. Call before Start.
func (s *Scheduler) Register(pictureReminderSpec, pendingDigestSpec string) error {
	if _, err := s.cron.AddFunc(pictureReminderSpec, func() { s.RunPictureReminders(context.Background()) }); err != nil {
		return fmt.Errorf("schedule picture reminders: %w", err)
	}
	if _, err := s.cron.AddFunc(pendingDigestSpec, func() { s.RunPendingDigest(context.Background()) }); err != nil {
		return fmt.Errorf("schedule pending digest: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunPictureReminders mails every approved member whose picture deadline has
// lapsed without an upload. Failures are logged per member and never abort
// the sweep.
func (s *Scheduler) RunPictureReminders(ctx context.Context) {
	recs, err := s.members.ListPictureOverdue(ctx, s.clk.Now())
	if err != nil {
		s.log.WithError(err).Error("picture reminder sweep failed to list members")
		return
	}
	if len(recs) == 0 {
		return
	}
	s.log.WithField("count", len(recs)).Info("sending picture upload reminders")

	sent := 0
	for _, rec := range recs {
		m := toDomain(rec)
		if ok, err := s.notifier.Notify(ctx, notify.KindPictureReminder, m); err != nil || !ok {
			s.log.WithError(err).WithField("member", m.ID).Warn("picture reminder not delivered")
			continue
		}
		sent++
	}
	s.log.WithFields(logrus.Fields{"sent": sent, "total": len(recs)}).Info("picture reminder sweep complete")
}

// RunPendingDigest mails staff a summary of registrations awaiting review.
// No pending members means no mail.
func (s *Scheduler) RunPendingDigest(ctx context.Context) {
	recs, err := s.members.ListPending(ctx, nil)
	if err != nil {
		s.log.WithError(err).Error("pending digest failed to list members")
		return
	}
	if len(recs) == 0 {
		return
	}
	staff, err := s.members.StaffEmails(ctx)
	if err != nil {
		s.log.WithError(err).Error("pending digest failed to resolve staff")
		return
	}
	if len(staff) == 0 {
		s.log.Warn("pending digest skipped: no staff recipients")
		return
	}

	names := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		names = append(names, map[string]any{
			"FullName":  rec.FullName,
			"RegNumber": rec.RegNumber,
		})
	}
	body, err := s.render.Render("staff_pending_digest", map[string]any{
		"Count":   len(recs),
		"Members": names,
	})
	if err != nil {
		s.log.WithError(err).Error("pending digest template rendering failed")
		return
	}

	subject := fmt.Sprintf("Pending Registrations: %d awaiting review", len(recs))
	res := s.notifier.Broadcast(ctx, subject, body, staff, s.notifier.StaffBatchSize)
	if res.Failed > 0 {
		s.log.WithFields(logrus.Fields{"failed": res.Failed, "total": res.Total}).Warn("pending digest completed with failures")
	}
}

func toDomain(m memberrepo.Member) domain.Member {
	return domain.Member{
		ID:                m.ID,
		RegNumber:         m.RegNumber,
		Email:             m.Email,
		FullName:          m.FullName,
		DepartmentID:      m.DepartmentID,
		Approved:          m.Approved,
		IsActive:          m.IsActive,
		HasPicture:        m.HasPicture,
		PictureUploadedAt: m.PictureUploadedAt,
		RegisteredAt:      m.RegisteredAt,
		ApprovedAt:        m.ApprovedAt,
	}
}
