package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scholarline/scholarline/engine/internal/store"
)

type scholarshipView struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Deadline          string   `json:"deadline,omitempty"`
	Location          string   `json:"location,omitempty"`
	University        string   `json:"university,omitempty"`
	Degree            string   `json:"degree,omitempty"`
	Fields            []string `json:"fields,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	URL               string   `json:"url,omitempty"`
	RequiresTestScore bool     `json:"requires_test_score"`
	RequiresEssay     bool     `json:"requires_essay"`
	Score             *float64 `json:"score,omitempty"`
}

type applicationView struct {
	ID            string  `json:"id"`
	ScholarshipID string  `json:"scholarship_id"`
	ApplicantName string  `json:"applicant_name"`
	Email         string  `json:"email"`
	Essay         string  `json:"essay"`
	GPA           float64 `json:"gpa"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

type taskView struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Priority      string `json:"priority"`
	DueDate       string `json:"due_date,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

func toScholarshipView(s store.Scholarship, score *float64) scholarshipView {
	return scholarshipView{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		Deadline:          s.Deadline,
		Location:          s.Location,
		University:        s.University,
		Degree:            s.Degree,
		Fields:            s.Fields,
		Tags:              s.Tags,
		URL:               s.URL,
		RequiresTestScore: s.RequiresTestScore,
		RequiresEssay:     s.RequiresEssay,
		Score:             score,
	}
}

func toApplicationView(a store.Application) applicationView {
	return applicationView{
		ID:            a.ID,
		ScholarshipID: a.ScholarshipID,
		ApplicantName: a.ApplicantName,
		Email:         a.Email,
		Essay:         a.Essay,
		GPA:           a.GPA,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt,
	}
}

func toTaskView(t store.Task) taskView {
	return taskView{
		ID:            t.ID,
		ApplicationID: t.ApplicationID,
		Title:         t.Title,
		Description:   t.Description,
		Priority:      t.Priority,
		DueDate:       t.DueDate,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
	}
}

func (s *Server) listScholarships(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, []string{"limit"}, 50)
	scholarships, err := s.store.ListScholarships(r.Context(), limit)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]scholarshipView, 0, len(scholarships))
	for _, scholarship := range scholarships {
		views = append(views, toScholarshipView(scholarship, nil))
	}
	writeJSON(w, map[string]any{"scholarships": views})
}

func (s *Server) getScholarship(w http.ResponseWriter, r *http.Request) {
	scholarship, err := s.store.GetScholarship(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if scholarship == nil {
		writeError(w, "scholarship not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toScholarshipView(*scholarship, nil))
}

// searchScholarships exposes hybrid ranking directly, outside the chat loop.
func (s *Server) searchScholarships(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("q"))
	}
	if query == "" {
		writeError(w, "query is required", http.StatusBadRequest)
		return
	}
	limit := parseLimit(r, []string{"k", "limit"}, s.cfg.DefaultSearchLimit)

	hits, err := s.ranker.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]scholarshipView, 0, len(hits))
	for _, hit := range hits {
		score := hit.Score
		views = append(views, toScholarshipView(hit.Scholarship, &score))
	}
	writeJSON(w, map[string]any{"query": query, "results": views})
}

type createApplicationRequest struct {
	ScholarshipID string  `json:"scholarship_id"`
	ApplicantName string  `json:"applicant_name"`
	Email         string  `json:"email"`
	Essay         string  `json:"essay"`
	GPA           float64 `json:"gpa"`
}

func (s *Server) createApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ScholarshipID) == "" || strings.TrimSpace(req.ApplicantName) == "" {
		writeError(w, "scholarship_id and applicant_name are required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, "email is not a valid address", http.StatusBadRequest)
		return
	}
	if req.GPA < 0 || req.GPA > 4 {
		writeError(w, "gpa must be between 0 and 4", http.StatusBadRequest)
		return
	}

	scholarship, err := s.store.GetScholarship(r.Context(), req.ScholarshipID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if scholarship == nil {
		writeError(w, "scholarship not found", http.StatusNotFound)
		return
	}

	application := store.Application{
		ID:            uuid.New().String(),
		ScholarshipID: req.ScholarshipID,
		ApplicantName: strings.TrimSpace(req.ApplicantName),
		Email:         req.Email,
		Essay:         req.Essay,
		GPA:           req.GPA,
		Status:        "Pending",
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.store.CreateApplication(r.Context(), application); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, toApplicationView(application), http.StatusCreated)
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := s.store.ListApplications(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]applicationView, 0, len(applications))
	for _, application := range applications {
		views = append(views, toApplicationView(application))
	}
	writeJSON(w, map[string]any{"applications": views})
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	application, err := s.store.GetApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if application == nil {
		writeError(w, "application not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toApplicationView(*application))
}

func (s *Server) listApplicationTasks(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	application, err := s.store.GetApplication(r.Context(), applicationID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if application == nil {
		writeError(w, "application not found", http.StatusNotFound)
		return
	}
	tasks, err := s.store.ListTasksByApplication(r.Context(), applicationID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, toTaskView(task))
	}
	writeJSON(w, map[string]any{"application_id": applicationID, "tasks": views})
}

type createTaskRequest struct {
	ApplicationID string `json:"application_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	DueDate       string `json:"due_date"`
}

var errBadPriority = errors.New("priority must be High, Medium or Low")

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ApplicationID) == "" || strings.TrimSpace(req.Title) == "" {
		writeError(w, "application_id and title are required", http.StatusBadRequest)
		return
	}
	priority := req.Priority
	if priority == "" {
		priority = "Medium"
	}
	if priority != "High" && priority != "Medium" && priority != "Low" {
		writeError(w, errBadPriority.Error(), http.StatusBadRequest)
		return
	}
	if req.DueDate != "" {
		if _, err := time.Parse("2006-01-02", req.DueDate); err != nil {
			writeError(w, "due_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	application, err := s.store.GetApplication(r.Context(), req.ApplicationID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if application == nil {
		writeError(w, "application not found", http.StatusNotFound)
		return
	}

	task := store.Task{
		ID:            uuid.New().String(),
		ApplicationID: req.ApplicationID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Priority:      priority,
		DueDate:       req.DueDate,
		Status:        "pending",
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.store.CreateTask(r.Context(), task); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, toTaskView(task), http.StatusCreated)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if task == nil {
		writeError(w, "task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toTaskView(*task))
}
