package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mzumbe-ict-club/membership-api/internal/app/directory"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type departmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	LeaderID    *string   `json:"leaderId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toDepartmentResponse(d domain.Department) departmentResponse {
	out := departmentResponse{
		ID:          string(d.ID),
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
	if d.LeaderID != nil {
		lid := string(*d.LeaderID)
		out.LeaderID = &lid
	}
	return out
}

type courseResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	ds, err := s.Directory.ListDepartments(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]departmentResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDepartmentResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": out})
}

func (s *Server) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	d, err := s.Directory.GetDepartmentBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentResponse(d))
}

type createDepartmentRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	LeaderID    *string `json:"leaderId,omitempty"`
}

func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	in := directory.DepartmentInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if req.LeaderID != nil {
		lid := domain.MemberID(*req.LeaderID)
		in.LeaderID = &lid
	}
	d, err := s.Directory.CreateDepartment(r.Context(), actor, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDepartmentResponse(d))
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	cs, err := s.Directory.ListCourses(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]courseResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, courseResponse{ID: string(c.ID), Name: c.Name, Code: c.Code})
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": out})
}

type createCourseRequest struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	c, err := s.Directory.CreateCourse(r.Context(), actor, directory.CourseInput{Name: req.Name, Code: req.Code})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, courseResponse{ID: string(c.ID), Name: c.Name, Code: c.Code})
}
