package payments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memclock "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/clock"
	memmemberrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/memberrepo"
	mempaymentrepo "github.com/mzumbe-ict-club/membership-api/internal/adapters/memory/paymentrepo"
	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
)

type recordedReceipt struct {
	to       string
	template string
}

type fakeReceipts struct {
	sent []recordedReceipt
}

func (f *fakeReceipts) SendTemplated(_ context.Context, _, templateName, to string, _ any) (bool, error) {
	f.sent = append(f.sent, recordedReceipt{to: to, template: templateName})
	return true, nil
}

func newTestService(t *testing.T) (*Service, *fakeReceipts, *memclock.ManualClock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	members := memmemberrepo.NewRepo()
	require.NoError(t, members.Create(context.Background(), memberrepo.Member{
		ID:           "m-1",
		RegNumber:    "T/UDOM/2025/0042",
		Email:        "asha@example.com",
		FullName:     "Asha Mushi",
		DepartmentID: "dept-prog",
		IsActive:     true,
		Approved:     true,
	}))

	clk := memclock.NewManualClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	receipts := &fakeReceipts{}
	return NewService(mempaymentrepo.NewRepo(), members, clk, receipts, log), receipts, clk
}

func TestService_RecordPayment_DefaultsToMembershipFee(t *testing.T) {
	t.Parallel()
	svc, _, clk := newTestService(t)

	p, err := svc.RecordPayment(context.Background(), RecordInput{
		MemberID: "m-1",
		Provider: domain.ProviderMpesa,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMembershipFeeTZS, p.Amount)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.NotEmpty(t, p.ReferenceCode)
	assert.Equal(t, clk.Now(), p.CreatedAt)
	assert.Nil(t, p.PaidAt)
}

func TestService_RecordPayment_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.RecordPayment(context.Background(), RecordInput{MemberID: "m-1", Provider: "paypal"})
	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)

	_, err = svc.RecordPayment(context.Background(), RecordInput{
		MemberID: "m-1", Provider: domain.ProviderCash, Amount: "15,000",
	})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)

	_, err = svc.RecordPayment(context.Background(), RecordInput{MemberID: "missing", Provider: domain.ProviderCash})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

func TestService_HandleWebhook_MatchesByReferenceAndSendsReceipt(t *testing.T) {
	t.Parallel()
	svc, receipts, clk := newTestService(t)

	p, err := svc.RecordPayment(context.Background(), RecordInput{MemberID: "m-1", Provider: domain.ProviderMpesa})
	require.NoError(t, err)
	clk.Advance(time.Hour)

	res, err := svc.HandleWebhook(context.Background(), WebhookInput{
		Provider:      domain.ProviderMpesa,
		EventType:     "payment.completed",
		Payload:       []byte(`{"result":0}`),
		TransactionID: "MPESA-123",
		ReferenceCode: p.ReferenceCode,
		Status:        domain.PaymentSuccess,
	})

	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.False(t, res.Duplicate)
	assert.Equal(t, domain.PaymentSuccess, res.Payment.Status)
	assert.Equal(t, "MPESA-123", res.Payment.TransactionID)
	require.NotNil(t, res.Payment.PaidAt)
	assert.Equal(t, clk.Now(), *res.Payment.PaidAt)

	require.Len(t, receipts.sent, 1)
	assert.Equal(t, "asha@example.com", receipts.sent[0].to)
	assert.Equal(t, "payment_received", receipts.sent[0].template)

	stored, err := svc.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, stored.Status)
}

func TestService_HandleWebhook_DuplicateIsAcknowledgedOnce(t *testing.T) {
	t.Parallel()
	svc, receipts, _ := newTestService(t)

	p, err := svc.RecordPayment(context.Background(), RecordInput{MemberID: "m-1", Provider: domain.ProviderStripe})
	require.NoError(t, err)

	hook := WebhookInput{
		Provider:      domain.ProviderStripe,
		EventType:     "charge.succeeded",
		TransactionID: "ch_123",
		ReferenceCode: p.ReferenceCode,
		Status:        domain.PaymentSuccess,
	}
	first, err := svc.HandleWebhook(context.Background(), hook)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := svc.HandleWebhook(context.Background(), hook)
	require.NoError(t, err)
	assert.True(t, second.Matched)
	assert.True(t, second.Duplicate)
	assert.Equal(t, domain.PaymentSuccess, second.Payment.Status)
	// Only the first callback produced a receipt.
	assert.Len(t, receipts.sent, 1)
	assert.NotEqual(t, first.LogID, second.LogID)
}

func TestService_HandleWebhook_UnmatchedStaysLogged(t *testing.T) {
	t.Parallel()
	svc, receipts, _ := newTestService(t)

	res, err := svc.HandleWebhook(context.Background(), WebhookInput{
		Provider:      domain.ProviderMpesa,
		EventType:     "payment.completed",
		TransactionID: "MPESA-999",
		ReferenceCode: "ICT-UNKNOWN",
		Status:        domain.PaymentSuccess,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.LogID)
	assert.False(t, res.Matched)
	assert.Empty(t, receipts.sent)
}

func TestService_HandleWebhook_FailedStatusHasNoReceipt(t *testing.T) {
	t.Parallel()
	svc, receipts, _ := newTestService(t)

	p, err := svc.RecordPayment(context.Background(), RecordInput{MemberID: "m-1", Provider: domain.ProviderMpesa})
	require.NoError(t, err)

	res, err := svc.HandleWebhook(context.Background(), WebhookInput{
		Provider:      domain.ProviderMpesa,
		EventType:     "payment.failed",
		ReferenceCode: p.ReferenceCode,
		Status:        domain.PaymentFailed,
	})

	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, domain.PaymentFailed, res.Payment.Status)
	assert.Nil(t, res.Payment.PaidAt)
	assert.Empty(t, receipts.sent)
}

func TestService_ListMemberPayments(t *testing.T) {
	t.Parallel()
	svc, _, clk := newTestService(t)

	first, err := svc.RecordPayment(context.Background(), RecordInput{MemberID: "m-1", Provider: domain.ProviderCash, Amount: "5000"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	second, err := svc.RecordPayment(context.Background(), RecordInput{MemberID: "m-1", Provider: domain.ProviderMpesa})
	require.NoError(t, err)

	list, err := svc.ListMemberPayments(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = svc.ListMemberPayments(context.Background(), "missing")
	ae := (*apperror.Error)(nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}
