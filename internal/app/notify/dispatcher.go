package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/mailer"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/renderer"
)

// Kind identifies a lifecycle transition with an associated message template.
type Kind string

const (
	KindRegistered      Kind = "registered"
	KindApproved        Kind = "approved"
	KindRejected        Kind = "rejected"
	KindPictureReminder Kind = "pictureReminder"
)

// StaffDirectory supplies the staff email set for fan-out copies. It is an
// explicit dependency so tests can substitute a fake instead of a live
// member query.
type StaffDirectory interface {
	StaffEmails(ctx context.Context) ([]string, error)
}

// BulkResult aggregates a bulk send. Successful+Failed always equals Total;
// recipients dropped before sending (malformed addresses) are excluded from
// Total and recorded in Errors.
type BulkResult struct {
	Total      int
	Successful int
	Failed     int
	Errors     []string
}

// Dispatcher sends lifecycle notifications: a templated message to the
// affected member, plus a staff fan-out copy for registration, approval and
// rejection. Sends are best-effort with bounded retry; the dispatcher never
// mutates state, and callers persist transitions before notifying.
type Dispatcher struct {
	mail   mailer.Mailer
	render renderer.Renderer
	staff  StaffDirectory
	log    *logrus.Logger
	from   string

	// Attempts bounds retries per recipient; RetryDelay is the fixed pause
	// between attempts, so worst-case latency per send is Attempts*RetryDelay.
	Attempts   int
	RetryDelay time.Duration

	// Batch sizes for bulk fan-out paths.
	MemberBatchSize int
	StaffBatchSize  int

	sleep func(time.Duration)
}

func NewDispatcher(mail mailer.Mailer, render renderer.Renderer, staff StaffDirectory, log *logrus.Logger, from string) *Dispatcher {
	return &Dispatcher{
		mail:            mail,
		render:          render,
		staff:           staff,
		log:             log,
		from:            from,
		Attempts:        3,
		RetryDelay:      time.Second,
		MemberBatchSize: 100,
		StaffBatchSize:  50,
		sleep:           time.Sleep,
	}
}

type template struct {
	subject       string
	memberTmpl    string
	staffSubject  func(m domain.Member) string
	staffTmpl     string
	staffCopySent bool
}

func (d *Dispatcher) templateFor(kind Kind) (template, error) {
	switch kind {
	case KindRegistered:
		return template{
			subject:       "Welcome to ICT Club - Account Pending Approval",
			memberTmpl:    "member_registered",
			staffSubject:  func(m domain.Member) string { return "New Registration: " + m.FullName },
			staffTmpl:     "staff_new_registration",
			staffCopySent: true,
		}, nil
	case KindApproved:
		return template{
			subject:       "Your ICT Club Account Has Been Approved",
			memberTmpl:    "member_approved",
			staffSubject:  func(m domain.Member) string { return "Member Approved: " + m.FullName },
			staffTmpl:     "staff_member_approved",
			staffCopySent: true,
		}, nil
	case KindRejected:
		return template{
			subject:       "ICT Club Registration - Status Update",
			memberTmpl:    "member_rejected",
			staffSubject:  func(m domain.Member) string { return "Member Rejected: " + m.FullName },
			staffTmpl:     "staff_member_rejected",
			staffCopySent: true,
		}, nil
	case KindPictureReminder:
		return template{
			subject:    "Picture Upload Reminder - ICT Club",
			memberTmpl: "picture_reminder",
		}, nil
	}
	return template{}, fmt.Errorf("unknown notification kind %q", kind)
}

// Notify sends the message bound to kind for member m. Failures are reported
// as (false, reason) after retries are exhausted; they are never raised to
// abort the caller's transition.
func (d *Dispatcher) Notify(ctx context.Context, kind Kind, m domain.Member) (bool, error) {
	return d.dispatch(ctx, kind, m, false)
}

// NotifyStrict behaves like Notify but propagates the underlying transport
// error instead of downgrading it to a report.
func (d *Dispatcher) NotifyStrict(ctx context.Context, kind Kind, m domain.Member) (bool, error) {
	return d.dispatch(ctx, kind, m, true)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind Kind, m domain.Member, strict bool) (bool, error) {
	if !d.mail.Configured() {
		d.log.WithField("kind", kind).Error("mail transport not configured; refusing to send")
		return false, mailer.ErrNotConfigured
	}
	tpl, err := d.templateFor(kind)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(m.Email) == "" {
		return false, fmt.Errorf("member %s has no email address", m.ID)
	}

	body, err := d.render.Render(tpl.memberTmpl, memberContext(m))
	if err != nil {
		d.log.WithError(err).WithField("template", tpl.memberTmpl).Error("template rendering failed")
		return false, err
	}

	sent, sendErr := d.sendWithRetry(ctx, mailer.Message{
		Subject: tpl.subject,
		Body:    body,
		From:    d.from,
		To:      []string{m.Email},
	})
	if sendErr != nil && strict {
		return false, sendErr
	}

	// Staff fan-out is always best-effort: a staff delivery failure never
	// turns a delivered member notification into an error.
	if tpl.staffCopySent {
		d.fanOutToStaff(ctx, tpl, m)
	}

	if sendErr != nil {
		return false, sendErr
	}
	return sent, nil
}

func (d *Dispatcher) fanOutToStaff(ctx context.Context, tpl template, m domain.Member) {
	emails, err := d.staff.StaffEmails(ctx)
	if err != nil {
		d.log.WithError(err).Warn("could not resolve staff emails for fan-out")
		return
	}
	if len(emails) == 0 {
		return
	}
	body, err := d.render.Render(tpl.staffTmpl, memberContext(m))
	if err != nil {
		d.log.WithError(err).WithField("template", tpl.staffTmpl).Error("staff template rendering failed")
		return
	}
	res := d.Broadcast(ctx, tpl.staffSubject(m), body, emails, d.StaffBatchSize)
	if res.Failed > 0 {
		d.log.WithFields(logrus.Fields{
			"failed": res.Failed,
			"total":  res.Total,
		}).Warn("staff fan-out completed with failures")
	}
}

// SendTemplated renders templateName with data and delivers it to a single
// recipient using the dispatcher's retry policy.
func (d *Dispatcher) SendTemplated(ctx context.Context, subject, templateName, to string, data any) (bool, error) {
	if !d.mail.Configured() {
		return false, mailer.ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return false, fmt.Errorf("no recipient address")
	}
	body, err := d.render.Render(templateName, data)
	if err != nil {
		d.log.WithError(err).WithField("template", templateName).Error("template rendering failed")
		return false, err
	}
	return d.sendWithRetry(ctx, mailer.Message{
		Subject: subject,
		Body:    body,
		From:    d.from,
		To:      []string{to},
	})
}

// Broadcast sends body to every recipient in fixed-size batches. Recipients
// are deduplicated, and addresses without '@' are dropped before sending and
// counted in the aggregate error list. A transport failure for one recipient
// never aborts the batch.
func (d *Dispatcher) Broadcast(ctx context.Context, subject, body string, recipients []string, batchSize int) BulkResult {
	res := BulkResult{}
	if !d.mail.Configured() {
		res.Failed = len(recipients)
		res.Total = len(recipients)
		res.Errors = append(res.Errors, mailer.ErrNotConfigured.Error())
		d.log.Error("mail transport not configured; bulk send refused")
		return res
	}
	if len(recipients) == 0 {
		d.log.Warn("bulk send requested with no recipients")
		return res
	}
	if batchSize <= 0 {
		batchSize = d.MemberBatchSize
	}

	valid := dedupeValid(recipients)
	if dropped := countDistinct(recipients) - len(valid); dropped > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("filtered out %d invalid email addresses", dropped))
	}
	res.Total = len(valid)

	d.log.WithFields(logrus.Fields{
		"recipients": len(valid),
		"batchSize":  batchSize,
	}).Info("starting bulk send")

	for start := 0; start < len(valid); start += batchSize {
		end := start + batchSize
		if end > len(valid) {
			end = len(valid)
		}
		for _, rcpt := range valid[start:end] {
			sent, err := d.sendWithRetry(ctx, mailer.Message{
				Subject: subject,
				Body:    body,
				From:    d.from,
				To:      []string{rcpt},
			})
			if sent {
				res.Successful++
			} else {
				res.Failed++
				if err != nil {
					res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", rcpt, err))
				}
			}
		}
	}

	d.log.WithFields(logrus.Fields{
		"total":      res.Total,
		"successful": res.Successful,
		"failed":     res.Failed,
	}).Info("bulk send complete")
	return res
}

// sendWithRetry attempts delivery up to d.Attempts times with a fixed pause
// between attempts. The returned error is the last transport error.
func (d *Dispatcher) sendWithRetry(ctx context.Context, msg mailer.Message) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= d.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		err := d.mail.Send(ctx, msg)
		if err == nil {
			d.log.WithFields(logrus.Fields{
				"to":      msg.To,
				"attempt": attempt,
			}).Info("email sent")
			return true, nil
		}
		lastErr = err
		if attempt < d.Attempts {
			d.log.WithError(err).WithFields(logrus.Fields{
				"to":      msg.To,
				"attempt": attempt,
			}).Warn("email send failed; retrying")
			d.sleep(d.RetryDelay)
		}
	}
	d.log.WithError(lastErr).WithField("to", msg.To).Error("email send failed; max retries exceeded")
	return false, fmt.Errorf("send to %s failed after %d attempts: %w", strings.Join(msg.To, ","), d.Attempts, lastErr)
}

func memberContext(m domain.Member) map[string]any {
	ctx := map[string]any{
		"FullName":  m.FullName,
		"RegNumber": m.RegNumber,
		"Email":     m.Email,
	}
	if deadline := m.PictureUploadDeadline(); !deadline.IsZero() {
		ctx["PictureDeadline"] = deadline.Format(time.RFC1123)
	}
	return ctx
}

func dedupeValid(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" || !strings.Contains(r, "@") {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func countDistinct(recipients []string) int {
	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		seen[strings.TrimSpace(r)] = struct{}{}
	}
	return len(seen)
}
