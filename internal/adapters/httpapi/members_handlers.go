package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/mzumbe-ict-club/membership-api/internal/app/approvals"
	"github.com/mzumbe-ict-club/membership-api/internal/app/registration"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type registerRequest struct {
	RegNumber    string  `json:"regNumber"`
	Email        string  `json:"email"`
	FullName     string  `json:"fullName"`
	DepartmentID string  `json:"departmentId"`
	CourseID     *string `json:"courseId,omitempty"`
	CourseOther  string  `json:"courseOther,omitempty"`
}

type registerResponse struct {
	Member  memberResponse `json:"member"`
	Warning string         `json:"warning,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	in := registration.RegisterInput{
		RegNumber:    req.RegNumber,
		Email:        req.Email,
		FullName:     req.FullName,
		DepartmentID: domain.DepartmentID(req.DepartmentID),
		CourseOther:  req.CourseOther,
	}
	if req.CourseID != nil {
		cid := domain.CourseID(*req.CourseID)
		in.CourseID = &cid
	}
	res, err := s.Registration.Register(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Member:  s.toMemberResponse(res.Member),
		Warning: res.NotifyWarning,
	})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.toMemberResponse(actor))
}

type updateProfileRequest struct {
	FullName    nullable.Nullable[string] `json:"fullName,omitempty"`
	CourseID    nullable.Nullable[string] `json:"courseId,omitempty"`
	CourseOther nullable.Nullable[string] `json:"courseOther,omitempty"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}

	in := registration.UpdateProfileInput{
		FullName:    toOptional[string](req.FullName, func(v string) string { return v }),
		CourseID:    toOptional[domain.CourseID](req.CourseID, func(v string) domain.CourseID { return domain.CourseID(v) }),
		CourseOther: toOptional[string](req.CourseOther, func(v string) string { return v }),
	}
	m, err := s.Registration.UpdateProfile(r.Context(), actor.ID, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toMemberResponse(m))
}

// toOptional maps the wire-level tri-state field onto the service-level one.
func toOptional[T any](n nullable.Nullable[string], conv func(string) T) registration.Optional[T] {
	if !n.IsSpecified() {
		return registration.Unspecified[T]()
	}
	if n.IsNull() {
		return registration.Null[T]()
	}
	return registration.Some(conv(n.MustGet()))
}

func (s *Server) handleGetMyStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	status, err := s.Approvals.Status(r.Context(), actor.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": string(status)})
}

type uploadPictureRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req uploadPictureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	m, err := s.Approvals.UploadPicture(r.Context(), actor.ID, approvals.PictureUpload{Filename: req.Filename})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toMemberResponse(m))
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsLeadership() {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "member directory is restricted to leadership", nil)
		return
	}
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	ms, err := s.Registration.ListMembers(r.Context(), includeInactive)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": s.toMemberResponses(ms)})
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := domain.MemberID(chi.URLParam(r, "memberID"))
	if !actor.IsLeadership() && actor.ID != id {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "you can only view your own profile", nil)
		return
	}
	m, err := s.Registration.GetMember(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toMemberResponse(m))
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ms, err := s.Approvals.PendingMembers(r.Context(), actor.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": s.toMemberResponses(ms)})
}

type approvalResponse struct {
	Member          memberResponse `json:"member"`
	AlreadyApproved bool           `json:"alreadyApproved,omitempty"`
	Warning         string         `json:"warning,omitempty"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.handleApprovalAction(w, r, s.Approvals.Approve)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleApprovalAction(w, r, s.Approvals.Reject)
}

func (s *Server) handleApprovalAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, memberID, actorID domain.MemberID) (approvals.Result, error)) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := domain.MemberID(chi.URLParam(r, "memberID"))
	res, err := action(r.Context(), id, actor.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approvalResponse{
		Member:          s.toMemberResponse(res.Member),
		AlreadyApproved: res.AlreadyApproved,
		Warning:         res.NotifyWarning,
	})
}
