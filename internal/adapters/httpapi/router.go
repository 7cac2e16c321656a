package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
)

// NewRouter constructs the API HTTP router.
//
// Identity resolution runs on every request; the picture guard then limits
// what unapproved or picture-overdue members can reach.
func NewRouter(s *Server, members MemberResolver, clk clockport.Clock) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(NewIdentityMiddleware(members))
	r.Use(NewPictureGuardMiddleware(clk))

	// Health endpoint for infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface.
		r.Post("/members", s.handleRegister)
		r.Get("/departments", s.handleListDepartments)
		r.Get("/departments/{slug}", s.handleGetDepartment)
		r.Get("/courses", s.handleListCourses)
		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{slug}", s.handleGetProject)
		r.Get("/events", s.handleListEvents)
		r.Get("/announcements", s.handleListAnnouncements)
		r.Post("/contact", s.handleSubmitContact)
		r.Post("/webhooks/payments/{provider}", s.handlePaymentWebhook)

		// Member self-service.
		r.Get("/me", s.handleGetMe)
		r.Patch("/me", s.handleUpdateMe)
		r.Get("/me/status", s.handleGetMyStatus)
		r.Post("/me/picture", s.handleUploadPicture)
		r.Get("/me/payments", s.handleListMyPayments)
		r.Post("/payments", s.handleRecordPayment)

		// Leadership surface.
		r.Get("/members", s.handleListMembers)
		r.Get("/members/pending", s.handleListPending)
		r.Get("/members/{memberID}", s.handleGetMember)
		r.Post("/members/{memberID}/approve", s.handleApprove)
		r.Post("/members/{memberID}/reject", s.handleReject)
		r.Post("/departments", s.handleCreateDepartment)
		r.Post("/courses", s.handleCreateCourse)
		r.Post("/projects", s.handleCreateProject)
		r.Post("/events", s.handleCreateEvent)
		r.Post("/announcements", s.handleCreateAnnouncement)
		r.Post("/announcements/{announcementID}/publish", s.handlePublishAnnouncement)
		r.Get("/contact/messages", s.handleListContactMessages)
		r.Post("/contact/messages/{messageID}/respond", s.handleMarkContactResponded)
	})

	return r
}
