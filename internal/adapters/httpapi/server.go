package httpapi

import (
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/app/approvals"
	"github.com/mzumbe-ict-club/membership-api/internal/app/contact"
	"github.com/mzumbe-ict-club/membership-api/internal/app/content"
	"github.com/mzumbe-ict-club/membership-api/internal/app/directory"
	"github.com/mzumbe-ict-club/membership-api/internal/app/payments"
	"github.com/mzumbe-ict-club/membership-api/internal/app/registration"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
)

// Server is the HTTP adapter: it decodes requests, delegates to the app
// services, and encodes responses. No business rules live here.
type Server struct {
	Registration *registration.Service
	Approvals    *approvals.Service
	Directory    *directory.Service
	Content      *content.Service
	Contact      *contact.Service
	Payments     *payments.Service

	Clock clockport.Clock
}

func NewServer(
	reg *registration.Service,
	appr *approvals.Service,
	dir *directory.Service,
	cont *content.Service,
	ct *contact.Service,
	pay *payments.Service,
	clk clockport.Clock,
) *Server {
	return &Server{
		Registration: reg,
		Approvals:    appr,
		Directory:    dir,
		Content:      cont,
		Contact:      ct,
		Payments:     pay,
		Clock:        clk,
	}
}

type memberResponse struct {
	ID           string     `json:"id"`
	RegNumber    string     `json:"regNumber"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	DepartmentID string     `json:"departmentId"`
	CourseID     *string    `json:"courseId,omitempty"`
	CourseOther  string     `json:"courseOther,omitempty"`
	Approved     bool       `json:"approved"`
	IsActive     bool       `json:"isActive"`
	Status       string     `json:"status"`
	HasPicture   bool       `json:"hasPicture"`
	PictureDue   *time.Time `json:"pictureDeadline,omitempty"`
	RegisteredAt time.Time  `json:"registeredAt"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
}

func (s *Server) toMemberResponse(m domain.Member) memberResponse {
	now := s.Clock.Now()
	out := memberResponse{
		ID:           string(m.ID),
		RegNumber:    m.RegNumber,
		Email:        m.Email,
		FullName:     m.FullName,
		DepartmentID: string(m.DepartmentID),
		CourseOther:  m.CourseOther,
		Approved:     m.Approved,
		IsActive:     m.IsActive,
		Status:       string(m.Status(now)),
		HasPicture:   m.HasPicture,
		RegisteredAt: m.RegisteredAt,
		ApprovedAt:   m.ApprovedAt,
	}
	if m.CourseID != nil {
		cid := string(*m.CourseID)
		out.CourseID = &cid
	}
	if !m.HasPicture {
		if deadline := m.PictureUploadDeadline(); !deadline.IsZero() {
			out.PictureDue = &deadline
		}
	}
	return out
}

func (s *Server) toMemberResponses(ms []domain.Member) []memberResponse {
	out := make([]memberResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, s.toMemberResponse(m))
	}
	return out
}
