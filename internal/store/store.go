package store

import "context"

// Scholarship is one catalog document. Embedding is the precomputed vector
// used by hybrid ranking; read paths that serve API responses drop it.
type Scholarship struct {
	ID                string
	Name              string
	Description       string
	Deadline          string
	Location          string
	University        string
	Degree            string
	Fields            []string
	Tags              []string
	URL               string
	RequiresTestScore bool
	RequiresEssay     bool
	Embedding         []float64
}

type Application struct {
	ID            string
	ScholarshipID string
	ApplicantName string
	Email         string
	Essay         string
	GPA           float64
	Status        string
	CreatedAt     string
}

type Task struct {
	ID            string
	ApplicationID string
	Title         string
	Description   string
	Priority      string
	DueDate       string
	Status        string
	CreatedAt     string
}

type Store interface {
	ListScholarships(ctx context.Context, limit int) ([]Scholarship, error)
	GetScholarship(ctx context.Context, id string) (*Scholarship, error)
	CreateApplication(ctx context.Context, application Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	ListApplications(ctx context.Context) ([]Application, error)
	CreateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasksByApplication(ctx context.Context, applicationID string) ([]Task, error)
}
