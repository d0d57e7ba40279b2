package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/scholarline/scholarline/engine/internal/store"
)

// MemoryStore backs tests and no-database deployments.
type MemoryStore struct {
	mu           sync.RWMutex
	scholarships map[string]store.Scholarship
	applications map[string]store.Application
	tasks        map[string]store.Task
}

func New() *MemoryStore {
	return &MemoryStore{
		scholarships: map[string]store.Scholarship{},
		applications: map[string]store.Application{},
		tasks:        map[string]store.Task{},
	}
}

// SeedScholarships loads catalog documents, replacing any with the same ID.
func (m *MemoryStore) SeedScholarships(scholarships []store.Scholarship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, scholarship := range scholarships {
		m.scholarships[scholarship.ID] = cloneScholarship(scholarship)
	}
}

func (m *MemoryStore) ListScholarships(ctx context.Context, limit int) ([]store.Scholarship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]store.Scholarship, 0, len(m.scholarships))
	for _, scholarship := range m.scholarships {
		results = append(results, cloneScholarship(scholarship))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MemoryStore) GetScholarship(ctx context.Context, id string) (*store.Scholarship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scholarship, ok := m.scholarships[id]
	if !ok {
		return nil, nil
	}
	cloned := cloneScholarship(scholarship)
	return &cloned, nil
}

func (m *MemoryStore) CreateApplication(ctx context.Context, application store.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(application.Status) == "" {
		application.Status = "Pending"
	}
	m.applications[application.ID] = application
	return nil
}

func (m *MemoryStore) GetApplication(ctx context.Context, id string) (*store.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	application, ok := m.applications[id]
	if !ok {
		return nil, nil
	}
	cloned := application
	return &cloned, nil
}

func (m *MemoryStore) ListApplications(ctx context.Context) ([]store.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]store.Application, 0, len(m.applications))
	for _, application := range m.applications {
		results = append(results, application)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt != results[j].CreatedAt {
			return results[i].CreatedAt > results[j].CreatedAt
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func (m *MemoryStore) CreateTask(ctx context.Context, task store.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(task.Status) == "" {
		task.Status = "pending"
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *MemoryStore) GetTask(ctx context.Context, id string) (*store.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	cloned := task
	return &cloned, nil
}

func (m *MemoryStore) ListTasksByApplication(ctx context.Context, applicationID string) ([]store.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := []store.Task{}
	for _, task := range m.tasks {
		if task.ApplicationID == applicationID {
			results = append(results, task)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt != results[j].CreatedAt {
			return results[i].CreatedAt < results[j].CreatedAt
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func cloneScholarship(scholarship store.Scholarship) store.Scholarship {
	cloned := scholarship
	cloned.Fields = append([]string{}, scholarship.Fields...)
	cloned.Tags = append([]string{}, scholarship.Tags...)
	cloned.Embedding = append([]float64{}, scholarship.Embedding...)
	return cloned
}
