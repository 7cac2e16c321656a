package domain

import "time"

// DefaultMembershipFeeTZS is the annual membership fee in Tanzanian
// shillings, charged when a payment is recorded without an explicit amount.
const DefaultMembershipFeeTZS = "15000.00"

type PaymentProvider string

const (
	ProviderMpesa        PaymentProvider = "mpesa"
	ProviderStripe       PaymentProvider = "stripe"
	ProviderBankTransfer PaymentProvider = "bank_transfer"
	ProviderCash         PaymentProvider = "cash"
)

// KnownProvider reports whether p is a provider this system accepts.
func KnownProvider(p PaymentProvider) bool {
	switch p {
	case ProviderMpesa, ProviderStripe, ProviderBankTransfer, ProviderCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// Payment is a membership-fee payment record. Amount is kept as a decimal
// string; this service never does arithmetic on it.
type Payment struct {
	ID       PaymentID
	MemberID MemberID

	Amount   string
	Provider PaymentProvider
	Status   PaymentStatus

	// TransactionID is the provider-issued transaction reference; unique
	// when present.
	TransactionID string
	// ReferenceCode is the member-facing reference quoted during payment.
	ReferenceCode string

	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}

// WebhookLog records an inbound payment-provider webhook for audit and
// replay debugging. Every webhook is logged before any matching is attempted.
type WebhookLog struct {
	ID        string
	Provider  PaymentProvider
	EventType string
	Payload   []byte
	Processed bool
	PaymentID *PaymentID
	CreatedAt time.Time
}
