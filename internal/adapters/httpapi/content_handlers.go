package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mzumbe-ict-club/membership-api/internal/app/content"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type projectResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	GitHubURL   string    `json:"githubUrl,omitempty"`
	LiveURL     string    `json:"liveUrl,omitempty"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{
		ID:          string(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Slug:        p.Slug,
		GitHubURL:   p.GitHubURL,
		LiveURL:     p.LiveURL,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.Content.ListProjects(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]projectResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": out})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.Content.GetProjectBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

type createProjectRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	GitHubURL    string  `json:"githubUrl,omitempty"`
	LiveURL      string  `json:"liveUrl,omitempty"`
	DepartmentID *string `json:"departmentId,omitempty"`
	Featured     bool    `json:"featured,omitempty"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsLeadership() {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "only leadership can publish projects", nil)
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	in := content.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
		GitHubURL:   req.GitHubURL,
		LiveURL:     req.LiveURL,
		Featured:    req.Featured,
		CreatedBy:   &actor.ID,
	}
	if req.DepartmentID != nil {
		did := domain.DepartmentID(*req.DepartmentID)
		in.DepartmentID = &did
	}
	p, err := s.Content.CreateProject(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EventDate   time.Time `json:"eventDate"`
	Location    string    `json:"location,omitempty"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	upcoming := r.URL.Query().Get("upcoming") == "true"
	es, err := s.Content.ListEvents(r.Context(), upcoming)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]eventResponse, 0, len(es))
	for _, e := range es {
		out = append(out, eventResponse{
			ID:          string(e.ID),
			Title:       e.Title,
			Description: e.Description,
			EventDate:   e.EventDate,
			Location:    e.Location,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

type createEventRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	EventDate    time.Time `json:"eventDate"`
	Location     string    `json:"location,omitempty"`
	DepartmentID *string   `json:"departmentId,omitempty"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsLeadership() {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "only leadership can schedule events", nil)
		return
	}
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	in := content.EventInput{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		Location:    req.Location,
	}
	if req.DepartmentID != nil {
		did := domain.DepartmentID(*req.DepartmentID)
		in.DepartmentID = &did
	}
	e, err := s.Content.CreateEvent(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventResponse{
		ID:          string(e.ID),
		Title:       e.Title,
		Description: e.Description,
		EventDate:   e.EventDate,
		Location:    e.Location,
	})
}

type announcementResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAnnouncementResponse(a domain.Announcement) announcementResponse {
	return announcementResponse{
		ID:        string(a.ID),
		Title:     a.Title,
		Content:   a.Content,
		Type:      string(a.Type),
		Published: a.Published,
		CreatedAt: a.CreatedAt,
	}
}

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	// Unpublished announcements are only visible to leadership.
	publishedOnly := true
	if actor, ok := ActorFromContext(r.Context()); ok && actor.IsLeadership() {
		publishedOnly = r.URL.Query().Get("includeUnpublished") != "true"
	}
	as, err := s.Content.ListAnnouncements(r.Context(), publishedOnly)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]announcementResponse, 0, len(as))
	for _, a := range as {
		out = append(out, toAnnouncementResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcements": out})
}

type createAnnouncementRequest struct {
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Type         string  `json:"type,omitempty"`
	DepartmentID *string `json:"departmentId,omitempty"`
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsLeadership() {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "only leadership can create announcements", nil)
		return
	}
	var req createAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	in := content.AnnouncementInput{
		Title:     req.Title,
		Content:   req.Content,
		Type:      domain.AnnouncementType(req.Type),
		CreatedBy: &actor.ID,
	}
	if req.DepartmentID != nil {
		did := domain.DepartmentID(*req.DepartmentID)
		in.DepartmentID = &did
	}
	a, err := s.Content.CreateAnnouncement(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAnnouncementResponse(a))
}

type publishAnnouncementResponse struct {
	Announcement announcementResponse `json:"announcement"`
	Recipients   int                  `json:"recipients"`
	Failed       int                  `json:"failed,omitempty"`
}

func (s *Server) handlePublishAnnouncement(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsLeadership() {
		writeError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "only leadership can publish announcements", nil)
		return
	}
	id := domain.AnnouncementID(chi.URLParam(r, "announcementID"))
	res, err := s.Content.PublishAnnouncement(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publishAnnouncementResponse{
		Announcement: toAnnouncementResponse(res.Announcement),
		Recipients:   res.Recipients,
		Failed:       res.Failed,
	})
}
