package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mzumbe-ict-club/membership-api/internal/app/payments"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type paymentResponse struct {
	ID            string     `json:"id"`
	Amount        string     `json:"amount"`
	Provider      string     `json:"provider"`
	Status        string     `json:"status"`
	ReferenceCode string     `json:"referenceCode"`
	TransactionID string     `json:"transactionId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

func toPaymentResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            string(p.ID),
		Amount:        p.Amount,
		Provider:      string(p.Provider),
		Status:        string(p.Status),
		ReferenceCode: p.ReferenceCode,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		PaidAt:        p.PaidAt,
	}
}

type recordPaymentRequest struct {
	Provider string `json:"provider"`
	Amount   string `json:"amount,omitempty"`
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	p, err := s.Payments.RecordPayment(r.Context(), payments.RecordInput{
		MemberID: actor.ID,
		Provider: domain.PaymentProvider(req.Provider),
		Amount:   req.Amount,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (s *Server) handleListMyPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ps, err := s.Payments.ListMemberPayments(r.Context(), actor.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]paymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": out})
}

// webhookRequest is the normalized shape providers are adapted to at the
// edge. The raw body is preserved verbatim in the audit log.
type webhookRequest struct {
	EventType     string `json:"eventType"`
	TransactionID string `json:"transactionId,omitempty"`
	ReferenceCode string `json:"referenceCode,omitempty"`
	Status        string `json:"status"`
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	provider := domain.PaymentProvider(chi.URLParam(r, "provider"))

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "unreadable body", nil)
		return
	}
	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}

	res, err := s.Payments.HandleWebhook(r.Context(), payments.WebhookInput{
		Provider:      provider,
		EventType:     req.EventType,
		Payload:       body,
		TransactionID: req.TransactionID,
		ReferenceCode: req.ReferenceCode,
		Status:        domain.PaymentStatus(req.Status),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	// Providers retry non-2xx responses, so an unmatched webhook is still
	// acknowledged; it stays in the audit log for follow-up.
	writeJSON(w, http.StatusOK, map[string]any{
		"logId":     res.LogID,
		"matched":   res.Matched,
		"duplicate": res.Duplicate,
	})
}
