package payments

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/paymentrepo"
)

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ReceiptSender delivers a payment receipt email. Satisfied by
// *notify.Dispatcher.
type ReceiptSender interface {
	SendTemplated(ctx context.Context, subject, templateName, to string, data any) (bool, error)
}

// Service tracks membership-fee payments. Payments are created pending with
// a member-facing reference code; provider webhooks drive them to a terminal
// status.
type Service struct {
	payments paymentrepo.Repository
	members  memberrepo.Repository
	clk      clockport.Clock
	receipts ReceiptSender
	log      *logrus.Logger

	newID  func() string
	newRef func() string
}

func NewService(payments paymentrepo.Repository, members memberrepo.Repository, clk clockport.Clock, receipts ReceiptSender, log *logrus.Logger) *Service {
	return &Service{
		payments: payments,
		members:  members,
		clk:      clk,
		receipts: receipts,
		log:      log,
		newID:    uuid.NewString,
		newRef:   newReferenceCode,
	}
}

func newReferenceCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ICT-" + raw[:10]
}

type RecordInput struct {
	MemberID domain.MemberID
	Provider domain.PaymentProvider
	// Amount is a decimal string; empty means the standard membership fee.
	Amount string
}

// RecordPayment opens a pending payment for a member and hands back the
// reference code the member quotes to the provider.
func (s *Service) RecordPayment(ctx context.Context, in RecordInput) (domain.Payment, error) {
	if !domain.KnownProvider(in.Provider) {
		return domain.Payment{}, apperror.Validation("unknown payment provider", map[string]any{
			"provider": "must be one of mpesa, stripe, bank_transfer, cash",
		})
	}
	amount := strings.TrimSpace(in.Amount)
	if amount == "" {
		amount = domain.DefaultMembershipFeeTZS
	}
	if !amountPattern.MatchString(amount) {
		return domain.Payment{}, apperror.Validation("invalid amount", map[string]any{
			"amount": "must be a decimal amount with at most two fraction digits",
		})
	}

	if _, err := s.members.GetByID(ctx, in.MemberID); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Payment{}, apperror.NotFound("member not found")
		}
		return domain.Payment{}, err
	}

	now := s.clk.Now()
	p := domain.Payment{
		ID:            domain.PaymentID(s.newID()),
		MemberID:      in.MemberID,
		Amount:        amount,
		Provider:      in.Provider,
		Status:        domain.PaymentPending,
		ReferenceCode: s.newRef(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.payments.CreatePayment(ctx, p); err != nil {
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return p, nil
}

// WebhookInput is a normalized provider callback. Adapters translate each
// provider's payload shape into this form before calling HandleWebhook.
type WebhookInput struct {
	Provider      domain.PaymentProvider
	EventType     string
	Payload       []byte
	TransactionID string
	ReferenceCode string
	Status        domain.PaymentStatus
}

// WebhookResult reports what the webhook did. An unmatched webhook is not an
// error: it stays in the audit log for manual follow-up.
type WebhookResult struct {
	LogID     string
	Matched   bool
	Duplicate bool
	Payment   domain.Payment
}

// HandleWebhook logs the callback, then tries to match it to a payment by
// transaction ID first and reference code second. The log entry is written
// before any matching, so no webhook is ever silently dropped.
func (s *Service) HandleWebhook(ctx context.Context, in WebhookInput) (WebhookResult, error) {
	if !domain.KnownProvider(in.Provider) {
		return WebhookResult{}, apperror.Validation("unknown payment provider", map[string]any{
			"provider": "unrecognized provider",
		})
	}
	switch in.Status {
	case domain.PaymentProcessing, domain.PaymentSuccess, domain.PaymentFailed, domain.PaymentCancelled:
	default:
		return WebhookResult{}, apperror.Validation("invalid webhook status", map[string]any{
			"status": "must be one of processing, success, failed, cancelled",
		})
	}

	logEntry := domain.WebhookLog{
		ID:        s.newID(),
		Provider:  in.Provider,
		EventType: in.EventType,
		Payload:   in.Payload,
		CreatedAt: s.clk.Now(),
	}
	if err := s.payments.CreateWebhookLog(ctx, logEntry); err != nil {
		return WebhookResult{}, fmt.Errorf("log webhook: %w", err)
	}
	res := WebhookResult{LogID: logEntry.ID}

	p, found, err := s.matchPayment(ctx, in)
	if err != nil {
		return res, err
	}
	if !found {
		s.log.WithFields(logrus.Fields{
			"provider":    in.Provider,
			"transaction": in.TransactionID,
			"reference":   in.ReferenceCode,
		}).Warn("webhook did not match any payment")
		return res, nil
	}
	res.Matched = true

	// A repeat callback for an already-terminal payment is acknowledged
	// without a second transition.
	if p.Status == domain.PaymentSuccess || p.Status == domain.PaymentFailed || p.Status == domain.PaymentCancelled {
		res.Duplicate = true
		res.Payment = p
		if err := s.payments.MarkWebhookProcessed(ctx, logEntry.ID, p.ID); err != nil {
			return res, fmt.Errorf("mark webhook processed: %w", err)
		}
		return res, nil
	}

	now := s.clk.Now()
	update := paymentrepo.StatusUpdate{Status: in.Status, UpdatedAt: now}
	if in.TransactionID != "" && p.TransactionID == "" {
		update.TransactionID = &in.TransactionID
	}
	if in.Status == domain.PaymentSuccess {
		update.PaidAt = &now
	}
	if err := s.payments.ApplyStatus(ctx, p.ID, update); err != nil {
		if errors.Is(err, paymentrepo.ErrTransactionIDTaken) {
			return res, apperror.Conflict("TRANSACTION_ID_TAKEN", "transaction ID already belongs to another payment")
		}
		return res, fmt.Errorf("apply payment status: %w", err)
	}
	if err := s.payments.MarkWebhookProcessed(ctx, logEntry.ID, p.ID); err != nil {
		return res, fmt.Errorf("mark webhook processed: %w", err)
	}

	p.Status = in.Status
	if update.TransactionID != nil {
		p.TransactionID = *update.TransactionID
	}
	if update.PaidAt != nil {
		p.PaidAt = update.PaidAt
	}
	p.UpdatedAt = now
	res.Payment = p

	if in.Status == domain.PaymentSuccess {
		s.sendReceipt(ctx, p)
	}
	return res, nil
}

func (s *Service) matchPayment(ctx context.Context, in WebhookInput) (domain.Payment, bool, error) {
	if in.TransactionID != "" {
		p, err := s.payments.GetByTransactionID(ctx, in.TransactionID)
		if err == nil {
			return p, true, nil
		}
		if !errors.Is(err, paymentrepo.ErrNotFound) {
			return domain.Payment{}, false, err
		}
	}
	if in.ReferenceCode != "" {
		p, err := s.payments.GetPendingByReference(ctx, in.ReferenceCode)
		if err == nil {
			return p, true, nil
		}
		if !errors.Is(err, paymentrepo.ErrNotFound) {
			return domain.Payment{}, false, err
		}
	}
	return domain.Payment{}, false, nil
}

// sendReceipt is best-effort: the payment is already durable.
func (s *Service) sendReceipt(ctx context.Context, p domain.Payment) {
	m, err := s.members.GetByID(ctx, p.MemberID)
	if err != nil {
		s.log.WithError(err).WithField("payment", p.ID).Warn("could not load member for payment receipt")
		return
	}
	_, err = s.receipts.SendTemplated(ctx, "ICT Club Membership Payment Received", "payment_received", m.Email, map[string]any{
		"FullName":  m.FullName,
		"Amount":    p.Amount,
		"Provider":  string(p.Provider),
		"Reference": p.ReferenceCode,
	})
	if err != nil {
		s.log.WithError(err).WithField("payment", p.ID).Warn("payment receipt not delivered")
	}
}

// GetPayment returns a payment by ID.
func (s *Service) GetPayment(ctx context.Context, id domain.PaymentID) (domain.Payment, error) {
	p, err := s.payments.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, paymentrepo.ErrNotFound) {
			return domain.Payment{}, apperror.NotFound("payment not found")
		}
		return domain.Payment{}, err
	}
	return p, nil
}

// ListMemberPayments returns a member's payments, newest first.
func (s *Service) ListMemberPayments(ctx context.Context, id domain.MemberID) ([]domain.Payment, error) {
	if _, err := s.members.GetByID(ctx, id); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return nil, apperror.NotFound("member not found")
		}
		return nil, err
	}
	return s.payments.ListByMember(ctx, id)
}
