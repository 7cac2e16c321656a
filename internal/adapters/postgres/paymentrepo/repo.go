package paymentrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mzumbe-ict-club/membership-api/internal/adapters/postgres"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/paymentrepo"
)

// Repo is a Postgres implementation of paymentrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) CreatePayment(ctx context.Context, p domain.Payment) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (
			id, member_id, amount, provider, status,
			transaction_id, reference_code, created_at, updated_at, paid_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		string(p.ID),
		string(p.MemberID),
		p.Amount,
		string(p.Provider),
		string(p.Status),
		txForDB(p.TransactionID),
		p.ReferenceCode,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
		p.PaidAt,
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "payments_transaction_id_unique" {
			return paymentrepo.ErrTransactionIDTaken
		}
		return err
	}
	return nil
}

func (r *Repo) ApplyStatus(ctx context.Context, id domain.PaymentID, u paymentrepo.StatusUpdate) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET status = $2,
		    transaction_id = COALESCE($3, transaction_id),
		    paid_at = COALESCE($4, paid_at),
		    updated_at = $5
		WHERE id = $1
	`,
		string(id),
		string(u.Status),
		u.TransactionID,
		u.PaidAt,
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "payments_transaction_id_unique" {
			return paymentrepo.ErrTransactionIDTaken
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return paymentrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetPayment(ctx context.Context, id domain.PaymentID) (domain.Payment, error) {
	return r.getOne(ctx, `WHERE id = $1`, string(id))
}

func (r *Repo) GetByTransactionID(ctx context.Context, txID string) (domain.Payment, error) {
	return r.getOne(ctx, `WHERE transaction_id = $1`, txID)
}

func (r *Repo) GetPendingByReference(ctx context.Context, ref string) (domain.Payment, error) {
	return r.getOne(ctx, `
		WHERE reference_code = $1 AND status IN ('pending','processing')
		ORDER BY created_at DESC
		LIMIT 1`, ref)
}

func (r *Repo) getOne(ctx context.Context, tail string, arg any) (domain.Payment, error) {
	if r.pool == nil {
		return domain.Payment{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, member_id, amount::text, provider, status,
		       transaction_id, reference_code, created_at, updated_at, paid_at
		FROM payments `+tail, arg)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, paymentrepo.ErrNotFound
		}
		return domain.Payment{}, err
	}
	return p, nil
}

func (r *Repo) ListByMember(ctx context.Context, id domain.MemberID) ([]domain.Payment, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, member_id, amount::text, provider, status,
		       transaction_id, reference_code, created_at, updated_at, paid_at
		FROM payments
		WHERE member_id = $1
		ORDER BY created_at DESC, id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateWebhookLog(ctx context.Context, l domain.WebhookLog) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_logs (id, provider, event_type, payload, processed, payment_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		l.ID,
		string(l.Provider),
		l.EventType,
		l.Payload,
		l.Processed,
		paymentForDB(l.PaymentID),
		l.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) MarkWebhookProcessed(ctx context.Context, id string, paymentID domain.PaymentID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE webhook_logs SET processed = TRUE, payment_id = $2 WHERE id = $1
	`, id, string(paymentID))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return paymentrepo.ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var (
		p                      domain.Payment
		id, memberID, provider string
		status                 string
		txID                   *string
	)
	err := row.Scan(&id, &memberID, &p.Amount, &provider, &status,
		&txID, &p.ReferenceCode, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		return domain.Payment{}, err
	}
	p.ID = domain.PaymentID(id)
	p.MemberID = domain.MemberID(memberID)
	p.Provider = domain.PaymentProvider(provider)
	p.Status = domain.PaymentStatus(status)
	if txID != nil {
		p.TransactionID = *txID
	}
	return p, nil
}

// txForDB stores empty transaction IDs as NULL so the unique index only
// applies to real provider references.
func txForDB(txID string) *string {
	if txID == "" {
		return nil
	}
	return &txID
}

func paymentForDB(id *domain.PaymentID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
