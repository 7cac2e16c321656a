package paymentrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/paymentrepo"
)

// Repo is an in-memory implementation of paymentrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	payments map[domain.PaymentID]domain.Payment
	idByTx   map[string]domain.PaymentID
	webhooks map[string]domain.WebhookLog
}

func NewRepo() *Repo {
	return &Repo{
		payments: make(map[domain.PaymentID]domain.Payment),
		idByTx:   make(map[string]domain.PaymentID),
		webhooks: make(map[string]domain.WebhookLog),
	}
}

func (r *Repo) CreatePayment(ctx context.Context, p domain.Payment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.TransactionID != "" {
		if _, ok := r.idByTx[p.TransactionID]; ok {
			return paymentrepo.ErrTransactionIDTaken
		}
		r.idByTx[p.TransactionID] = p.ID
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *Repo) ApplyStatus(ctx context.Context, id domain.PaymentID, u paymentrepo.StatusUpdate) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return paymentrepo.ErrNotFound
	}
	p.Status = u.Status
	if u.TransactionID != nil {
		if existing, ok := r.idByTx[*u.TransactionID]; ok && existing != id {
			return paymentrepo.ErrTransactionIDTaken
		}
		if p.TransactionID != "" {
			delete(r.idByTx, p.TransactionID)
		}
		p.TransactionID = *u.TransactionID
		r.idByTx[p.TransactionID] = id
	}
	if u.PaidAt != nil {
		v := *u.PaidAt
		p.PaidAt = &v
	}
	p.UpdatedAt = u.UpdatedAt
	r.payments[id] = p
	return nil
}

func (r *Repo) GetPayment(ctx context.Context, id domain.PaymentID) (domain.Payment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return domain.Payment{}, paymentrepo.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *Repo) GetByTransactionID(ctx context.Context, txID string) (domain.Payment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByTx[txID]
	if !ok {
		return domain.Payment{}, paymentrepo.ErrNotFound
	}
	return clonePayment(r.payments[id]), nil
}

func (r *Repo) GetPendingByReference(ctx context.Context, ref string) (domain.Payment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found bool
		best  domain.Payment
	)
	for _, p := range r.payments {
		if p.ReferenceCode != ref {
			continue
		}
		if p.Status != domain.PaymentPending && p.Status != domain.PaymentProcessing {
			continue
		}
		if !found || p.CreatedAt.After(best.CreatedAt) {
			best = p
			found = true
		}
	}
	if !found {
		return domain.Payment{}, paymentrepo.ErrNotFound
	}
	return clonePayment(best), nil
}

func (r *Repo) ListByMember(ctx context.Context, id domain.MemberID) ([]domain.Payment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Payment, 0)
	for _, p := range r.payments {
		if p.MemberID == id {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) CreateWebhookLog(ctx context.Context, l domain.WebhookLog) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks[l.ID] = l
	return nil
}

func (r *Repo) MarkWebhookProcessed(ctx context.Context, id string, paymentID domain.PaymentID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.webhooks[id]
	if !ok {
		return paymentrepo.ErrNotFound
	}
	l.Processed = true
	l.PaymentID = &paymentID
	r.webhooks[id] = l
	return nil
}

func clonePayment(p domain.Payment) domain.Payment {
	out := p
	if p.PaidAt != nil {
		v := *p.PaidAt
		out.PaidAt = &v
	}
	return out
}
