package paymentrepo

import (
	"context"
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

// StatusUpdate is a partial write touching only the payment status fields.
type StatusUpdate struct {
	Status        domain.PaymentStatus
	TransactionID *string
	PaidAt        *time.Time
	UpdatedAt     time.Time
}

// Repository provides access to membership-fee payments and the webhook
// audit log.
type Repository interface {
	CreatePayment(ctx context.Context, p domain.Payment) error
	ApplyStatus(ctx context.Context, id domain.PaymentID, u StatusUpdate) error

	GetPayment(ctx context.Context, id domain.PaymentID) (domain.Payment, error)
	GetByTransactionID(ctx context.Context, txID string) (domain.Payment, error)
	// GetPendingByReference finds the most recent non-terminal payment with
	// the given member reference code.
	GetPendingByReference(ctx context.Context, ref string) (domain.Payment, error)

	ListByMember(ctx context.Context, id domain.MemberID) ([]domain.Payment, error)

	CreateWebhookLog(ctx context.Context, l domain.WebhookLog) error
	MarkWebhookProcessed(ctx context.Context, id string, paymentID domain.PaymentID) error
}
