package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mzumbe-ict-club/membership-api/internal/app/contact"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	res, err := s.Contact.Submit(r.Context(), contact.SubmitInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        string(res.Message.ID),
		"forwarded": res.Forwarded,
	})
}

type contactMessageResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Responded bool      `json:"responded"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListContactMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsStaffLike() {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "contact messages are restricted to staff", nil)
		return
	}
	unrespondedOnly := r.URL.Query().Get("unresponded") == "true"
	ms, err := s.Contact.ListMessages(r.Context(), unrespondedOnly)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]contactMessageResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, contactMessageResponse{
			ID:        string(m.ID),
			Name:      m.Name,
			Email:     m.Email,
			Phone:     m.Phone,
			Subject:   m.Subject,
			Message:   m.Message,
			Responded: m.Responded,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) handleMarkContactResponded(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsStaffLike() {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "contact messages are restricted to staff", nil)
		return
	}
	id := domain.ContactMessageID(chi.URLParam(r, "messageID"))
	if err := s.Contact.MarkResponded(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
