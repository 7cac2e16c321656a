package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/contentrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/renderer"
)

// minMessageLength matches the stored-content floor used for announcements
// and project descriptions.
const minMessageLength = 10

// Broadcaster delivers the staff copy of an incoming contact message.
type Broadcaster interface {
	Broadcast(ctx context.Context, subject, body string, recipients []string, batchSize int) notify.BulkResult
}

// Service handles the public contact form: it stores every submission, then
// forwards a copy to staff by email. Storage is the source of truth; a
// delivery failure never loses the message.
type Service struct {
	repo     contentrepo.Repository
	staff    notify.StaffDirectory
	sender   Broadcaster
	render   renderer.Renderer
	clk      clockport.Clock
	log      *logrus.Logger
	fallback string // address that receives the copy when no staff exist

	newID func() string
}

func NewService(repo contentrepo.Repository, staff notify.StaffDirectory, sender Broadcaster, render renderer.Renderer, clk clockport.Clock, log *logrus.Logger, fallback string) *Service {
	return &Service{
		repo:     repo,
		staff:    staff,
		sender:   sender,
		render:   render,
		clk:      clk,
		log:      log,
		fallback: fallback,
		newID:    uuid.NewString,
	}
}

type SubmitInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// SubmitResult reports the stored message and whether the staff copy was
// delivered.
type SubmitResult struct {
	Message   domain.ContactMessage
	Forwarded bool
}

// Submit validates and stores a contact-form submission, then forwards it
// to staff.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return SubmitResult{}, apperror.Validation("invalid name", map[string]any{"name": "must be non-empty"})
	}
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return SubmitResult{}, apperror.Validation("invalid email", map[string]any{"email": "must be a valid email address"})
	}
	message := strings.TrimSpace(in.Message)
	if len(message) < minMessageLength {
		return SubmitResult{}, apperror.Validation("invalid message", map[string]any{
			"message": fmt.Sprintf("must be at least %d characters", minMessageLength),
		})
	}

	m := domain.ContactMessage{
		ID:        domain.ContactMessageID(s.newID()),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   message,
		CreatedAt: s.clk.Now(),
	}
	if err := s.repo.CreateContactMessage(ctx, m); err != nil {
		return SubmitResult{}, fmt.Errorf("store contact message: %w", err)
	}

	res := SubmitResult{Message: m}
	res.Forwarded = s.forwardToStaff(ctx, m)
	return res, nil
}

func (s *Service) forwardToStaff(ctx context.Context, m domain.ContactMessage) bool {
	recipients, err := s.staff.StaffEmails(ctx)
	if err != nil {
		s.log.WithError(err).Warn("could not resolve staff emails for contact message")
		recipients = nil
	}
	if len(recipients) == 0 {
		if s.fallback == "" {
			s.log.WithField("message", m.ID).Warn("contact message stored but no staff recipients configured")
			return false
		}
		recipients = []string{s.fallback}
	}

	body, err := s.render.Render("contact_message", map[string]any{
		"Name":    m.Name,
		"Email":   m.Email,
		"Phone":   m.Phone,
		"Subject": m.Subject,
		"Message": m.Message,
	})
	if err != nil {
		s.log.WithError(err).Error("contact message template rendering failed")
		return false
	}

	subject := "Contact Form: " + m.Subject
	if m.Subject == "" {
		subject = "Contact Form Message from " + m.Name
	}
	bulk := s.sender.Broadcast(ctx, subject, body, recipients, len(recipients))
	if bulk.Failed > 0 {
		s.log.WithFields(logrus.Fields{
			"message": m.ID,
			"failed":  bulk.Failed,
		}).Warn("contact message stored but staff copy partially failed")
	}
	return bulk.Successful > 0
}

// ListMessages returns stored contact messages, newest first.
func (s *Service) ListMessages(ctx context.Context, unrespondedOnly bool) ([]domain.ContactMessage, error) {
	return s.repo.ListContactMessages(ctx, unrespondedOnly)
}

// MarkResponded records that staff have handled the message.
func (s *Service) MarkResponded(ctx context.Context, id domain.ContactMessageID) error {
	if err := s.repo.MarkContactResponded(ctx, id); err != nil {
		if errors.Is(err, contentrepo.ErrNotFound) {
			return apperror.NotFound("contact message not found")
		}
		return err
	}
	return nil
}
